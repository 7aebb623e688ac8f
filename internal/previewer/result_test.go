package previewer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineLogsFormat(t *testing.T) {
	logs := combineLogs([]LogSection{
		{Name: "convert.out", Content: "line one\nline two\n\n"},
	}, SuccessMsg)

	lines := strings.Split(logs, "\n")
	assert.Equal(t, SuccessMsg, lines[0])
	assert.Equal(t, "", lines[1])
	assert.Contains(t, lines[2], "= convert.out =")
	// Separator halves pad toward 78 columns.
	assert.GreaterOrEqual(t, len(lines[2]), 70)
	assert.Contains(t, logs, "line one\nline two")
	// Trailing blank lines in the section content are trimmed.
	assert.NotContains(t, logs, "line two\n\n\n")
}

func TestCombineLogsLongSectionName(t *testing.T) {
	long := strings.Repeat("x", 90)
	logs := combineLogs([]LogSection{{Name: long, Content: "c"}}, "msg")
	assert.Contains(t, logs, "==== "+long+" ====")
}

func TestTruncateList(t *testing.T) {
	short := []string{"a", "b"}
	assert.Equal(t, short, truncateList(short, 100))

	var long []string
	for i := 0; i < 250; i++ {
		long = append(long, fmt.Sprintf("msg %d", i))
	}
	out := truncateList(long, MaxGuidance)
	assert.Len(t, out, MaxGuidance)
	assert.Equal(t, "msg 0", out[0])
	assert.Equal(t, "msg 249", out[len(out)-1])
	assert.Contains(t, strings.Join(out, "\n"), "omitted")
}

func TestNewResultSuccess(t *testing.T) {
	r := NewResult([]byte("kpf"), nil, "", nil, nil)
	assert.True(t, r.Succeeded())
	assert.True(t, strings.HasPrefix(r.Logs, SuccessMsg))
	assert.Empty(t, r.Guidance)
}

func TestNewResultErrorHeadline(t *testing.T) {
	r := NewResult(nil, nil, "Process Failure: KPF conversion return code 00000001", nil, []string{"Warning(prcgen): W1"})
	assert.False(t, r.Succeeded())
	assert.True(t, strings.HasPrefix(r.Logs, "Process Failure"))
	assert.Equal(t, "Warning(prcgen): W1", r.Guidance)
}

func TestNewResultErrorWithDataAppendsGuidance(t *testing.T) {
	r := NewResult([]byte("kpf"), nil, "suspect output", nil, []string{"Warning: W1"})
	assert.False(t, r.Succeeded())
	assert.Equal(t, "Warning: W1\nsuspect output", r.Guidance)
}
