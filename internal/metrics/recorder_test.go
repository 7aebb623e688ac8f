package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("run_previewer", time.Second)
	r.ObserveConversionDuration(time.Minute)
	r.IncStageResult("prepare_input", ResultSuccess)
	r.IncConversionOutcome(OutcomeFailed)
}

func TestPrometheusRecorderNilReceiver(t *testing.T) {
	var p *PrometheusRecorder
	p.ObserveStageDuration("x", time.Second)
	p.ObserveConversionDuration(time.Second)
	p.IncStageResult("x", ResultFatal)
	p.IncConversionOutcome(OutcomeSuccess)
}

func TestPrometheusRecorderRegistersAndCounts(t *testing.T) {
	reg := prom.NewRegistry()
	p := NewPrometheusRecorder(reg)

	p.ObserveStageDuration("run_previewer", 2*time.Second)
	p.ObserveConversionDuration(90 * time.Second)
	p.IncStageResult("run_previewer", ResultSuccess)
	p.IncConversionOutcome(OutcomeSuccess)
	p.IncConversionOutcome(OutcomeTimeout)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["kpfbuilder_stage_duration_seconds"])
	assert.True(t, names["kpfbuilder_conversion_duration_seconds"])
	assert.True(t, names["kpfbuilder_stage_results_total"])
	assert.True(t, names["kpfbuilder_conversion_outcomes_total"])
}
