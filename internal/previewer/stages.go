package previewer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/kpfbuilder/internal/logfields"
	"git.home.luguber.info/inful/kpfbuilder/internal/metrics"
	"git.home.luguber.info/inful/kpfbuilder/internal/runner"
	"git.home.luguber.info/inful/kpfbuilder/internal/workspace"
)

// StageName identifies a discrete unit of work in the conversion.
type StageName string

const (
	StagePrepareWorkspace StageName = "prepare_workspace"
	StagePrepareInput     StageName = "prepare_input"
	StageRunPreviewer     StageName = "run_previewer"
	StageCollectResult    StageName = "collect_result"
)

// Stage is a discrete unit of work in the conversion pipeline.
type Stage func(ctx context.Context, cs *ConversionState) error

// StageDef pairs a stage with its name for the runner loop.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// ConversionState carries mutable state across stages of one conversion job.
type ConversionState struct {
	Sequence *Sequence
	JobID    string
	Input    string // original input file path
	Opts     Options

	Workspace *workspace.Manager
	InFile    string // prepared input handed to the Previewer
	OutputDir string // where the Previewer writes the KPF

	// Book-type flags from input inspection.
	IsKIM        bool
	IsDictionary bool
	FullBookType string

	LogData  []LogSection
	Run      *runner.RunResult
	KPFData  []byte
	Guidance []string
	ErrorMsg string

	start time.Time
}

// AddLog appends a named log section, preserving insertion order.
func (cs *ConversionState) AddLog(name, content string) {
	cs.LogData = append(cs.LogData, LogSection{Name: name, Content: content})
}

// Fail records the first conversion error; later errors are dropped since
// the first one is what the user needs to see.
func (cs *ConversionState) Fail(msg string) {
	if cs.ErrorMsg == "" {
		cs.ErrorMsg = msg
	}
}

// runStages executes stages in order, recording timing and stopping on the
// first stage error. Stage errors become the conversion's in-band ErrorMsg;
// the caller still aggregates a full Result afterwards.
func runStages(ctx context.Context, cs *ConversionState, stages []StageDef) {
	recorder := cs.Sequence.recorder
	for _, st := range stages {
		select {
		case <-ctx.Done():
			cs.Fail(fmt.Sprintf("Conversion canceled before stage %s: %v", st.Name, ctx.Err()))
			recorder.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, cs)
		dur := time.Since(t0)
		recorder.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			cs.Fail(err.Error())
			recorder.IncStageResult(string(st.Name), metrics.ResultFatal)
			slog.Debug("Conversion stage failed",
				logfields.JobID(cs.JobID),
				logfields.Stage(string(st.Name)),
				logfields.Error(err))
			return
		}
		recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
		slog.Debug("Conversion stage complete",
			logfields.JobID(cs.JobID),
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur.Milliseconds())))
	}
}
