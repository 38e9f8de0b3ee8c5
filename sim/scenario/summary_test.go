package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/epimodel/sirsim/sim/sir"
)

func sampleResults() []Result {
	return []Result{
		{Scenario: 0, Seed: 1, State: StateCompleted, Wall: 2 * time.Millisecond,
			Totals: sir.Totals{Population: 100, Infected: 20, Recovered: 18, Dead: 2, Events: 140, EndTime: 31.5}},
		{Scenario: 1, Seed: 2, State: StateFailed, Err: errors.New("scenario 1: invalid parameters")},
		{Scenario: 2, Seed: 3, State: StateCompleted, Wall: time.Millisecond,
			Totals: sir.Totals{Population: 100, Infected: 40, Recovered: 40, Events: 260, EndTime: 44}},
	}
}

func TestNewSummary_AttackRateOverCompletedScenarios(t *testing.T) {
	s := NewSummary("run-1", 3, sampleResults())

	require.Len(t, s.Scenarios, 3)
	assert.Equal(t, "failed", s.Scenarios[1].State)
	assert.Equal(t, "scenario 1: invalid parameters", s.Scenarios[1].Error)
	assert.Equal(t, 2, s.AttackRate.Scenarios)
	assert.InDelta(t, 0.3, s.AttackRate.Mean, 1e-12)
	// Sample standard deviation of {0.2, 0.4}.
	assert.InDelta(t, 0.141421356, s.AttackRate.StdDev, 1e-6)
}

func TestNewSummary_SingleScenarioHasNoSpread(t *testing.T) {
	s := NewSummary("run-2", 1, sampleResults()[:1])
	assert.Equal(t, 1, s.AttackRate.Scenarios)
	assert.InDelta(t, 0.2, s.AttackRate.Mean, 1e-12)
	assert.Zero(t, s.AttackRate.StdDev)
}

func TestSummary_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), SummaryFile)
	require.NoError(t, NewSummary("run-3", 2, sampleResults()).WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Summary
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "run-3", got.RunID)
	assert.Equal(t, 2, got.Threads)
	assert.Len(t, got.Scenarios, 3)
	assert.Equal(t, 140, got.Scenarios[0].Events)
}

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()
	for _, res := range sampleResults() {
		m.Observe(res)
	}

	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.scenarios.WithLabelValues("completed")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.scenarios.WithLabelValues("failed")))
	assert.Equal(t, 40.0, promtestutil.ToFloat64(m.infected.WithLabelValues("2")))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.dead.WithLabelValues("0")))
	// Failed scenarios export no per-scenario gauges.
	assert.Equal(t, 2, promtestutil.CollectAndCount(m.infected))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.Observe(sampleResults()[0])
	path := filepath.Join(t.TempDir(), "sirsim.prom")

	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `sirsim_scenarios_total{state="completed"} 1`), text)
	assert.Contains(t, text, "sirsim_scenario_wall_seconds_bucket")
}
