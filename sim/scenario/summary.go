package scenario

import (
	"fmt"

	"github.com/google/renameio/v2"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// SummaryFile is the run manifest written next to the report tables.
const SummaryFile = "summary.yaml"

// Summary is the run manifest: one entry per scenario plus aggregate
// attack-rate statistics over the completed scenarios.
type Summary struct {
	RunID      string            `yaml:"run_id"`
	Threads    int               `yaml:"threads"`
	Scenarios  []ScenarioSummary `yaml:"scenarios"`
	AttackRate AttackRateStats   `yaml:"attack_rate"`
}

// ScenarioSummary holds the totals of one scenario.
type ScenarioSummary struct {
	Scenario      int     `yaml:"scenario"`
	Seed          uint64  `yaml:"seed"`
	State         string  `yaml:"state"`
	Error         string  `yaml:"error,omitempty"`
	Population    int     `yaml:"population"`
	Infected      int     `yaml:"infected"`
	Recovered     int     `yaml:"recovered"`
	Dead          int     `yaml:"dead"`
	Contacts      int     `yaml:"contacts"`
	Transmissions int     `yaml:"transmissions"`
	Events        int     `yaml:"events"`
	EndTime       float64 `yaml:"end_time"`
	WallSeconds   float64 `yaml:"wall_seconds"`
}

// AttackRateStats describes infected/population across completed scenarios.
type AttackRateStats struct {
	Scenarios int     `yaml:"scenarios"`
	Mean      float64 `yaml:"mean"`
	StdDev    float64 `yaml:"std_dev"`
}

// NewSummary builds the manifest of a run.
func NewSummary(runID string, threads int, results []Result) *Summary {
	s := &Summary{RunID: runID, Threads: threads}
	var rates []float64
	for _, res := range results {
		entry := ScenarioSummary{
			Scenario:      res.Scenario,
			Seed:          res.Seed,
			State:         res.State.String(),
			Population:    res.Totals.Population,
			Infected:      res.Totals.Infected,
			Recovered:     res.Totals.Recovered,
			Dead:          res.Totals.Dead,
			Contacts:      res.Totals.Contacts,
			Transmissions: res.Totals.Transmissions,
			Events:        res.Totals.Events,
			EndTime:       res.Totals.EndTime,
			WallSeconds:   res.Wall.Seconds(),
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		s.Scenarios = append(s.Scenarios, entry)
		if res.State == StateCompleted && res.Totals.Population > 0 {
			rates = append(rates, float64(res.Totals.Infected)/float64(res.Totals.Population))
		}
	}

	s.AttackRate.Scenarios = len(rates)
	switch len(rates) {
	case 0:
	case 1:
		s.AttackRate.Mean = rates[0]
	default:
		s.AttackRate.Mean, s.AttackRate.StdDev = stat.MeanStdDev(rates, nil)
	}
	return s
}

// WriteFile atomically writes the manifest as YAML.
func (s *Summary) WriteFile(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
