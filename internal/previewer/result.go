package previewer

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxGuidance caps the number of guidance messages carried in a Result.
	MaxGuidance = 100
	// SuccessMsg is the headline for a clean conversion.
	SuccessMsg = "Successful conversion to KPF"
)

// LogSection is one named block of captured diagnostic output. Sections keep
// insertion order so the combined log reads chronologically.
type LogSection struct {
	Name    string
	Content string
}

// Result is the structured outcome of a conversion attempt.
type Result struct {
	// JobID identifies the conversion run in logs, history and events.
	JobID string
	// Outcome is the final status (success|failed|timeout|canceled).
	Outcome string
	// Duration is the wall-clock time of the whole conversion.
	Duration time.Duration
	// KPFData is the packaged output, nil when conversion failed.
	KPFData []byte
	// EPUBData carries an intermediate EPUB when a sequence produces one.
	EPUBData []byte
	// ErrorMsg is empty on success.
	ErrorMsg string
	// Logs is the combined human-readable log (headline plus all sections).
	Logs string
	// Guidance is the newline-joined, truncated guidance message list.
	Guidance string
}

// NewResult assembles a Result from the raw conversion state. When KPF data
// exists alongside an error the error is appended to guidance, since the
// output is usable but suspect.
func NewResult(kpfData, epubData []byte, errorMsg string, logData []LogSection, guidanceMsgs []string) *Result {
	msg := errorMsg
	if msg == "" {
		msg = SuccessMsg
	}
	if kpfData != nil && errorMsg != "" {
		guidanceMsgs = append(append([]string{}, guidanceMsgs...), errorMsg)
	}
	return &Result{
		KPFData:  kpfData,
		EPUBData: epubData,
		ErrorMsg: errorMsg,
		Logs:     combineLogs(logData, msg),
		Guidance: strings.Join(truncateList(guidanceMsgs, MaxGuidance), "\n"),
	}
}

// Succeeded reports whether the conversion produced usable KPF output
// without errors.
func (r *Result) Succeeded() bool {
	return r.ErrorMsg == "" && r.KPFData != nil
}

// combineLogs renders the headline message followed by each section framed
// by "==== name ====" separators padded toward 78 columns.
func combineLogs(logData []LogSection, msg string) string {
	lst := []string{msg, ""}
	for _, section := range logData {
		sepLen := (78 - len(section.Name)) / 2
		if sepLen < 4 {
			sepLen = 4
		}
		sep := strings.Repeat("=", sepLen)
		lst = append(lst,
			fmt.Sprintf("%s %s %s\n", sep, section.Name, sep),
			strings.TrimRight(section.Content, " \t\r\n"),
			"")
	}
	return strings.Join(lst, "\n")
}

// truncateList bounds a message list to max entries, keeping the head and
// tail around an elision marker so both the first and final messages survive.
func truncateList(list []string, max int) []string {
	if len(list) <= max {
		return list
	}
	head := max / 2
	tail := max - head - 1
	out := make([]string, 0, max)
	out = append(out, list[:head]...)
	out = append(out, fmt.Sprintf("... %d messages omitted ...", len(list)-head-tail))
	return append(out, list[len(list)-tail:]...)
}
