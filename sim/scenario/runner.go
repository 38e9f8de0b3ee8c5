// Package scenario runs many isolated SIR scenarios, sequentially or on a
// bounded worker pool, and merges their report streams into scenario-tagged tables.
package scenario

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/epimodel/sirsim/sim"
	"github.com/epimodel/sirsim/sim/sir"
)

// ErrAllScenariosFailed is returned by Run when no scenario completed.
var ErrAllScenariosFailed = errors.New("all scenarios failed")

// rowBuffer is the capacity of the fan-in channel in parallel mode.
const rowBuffer = 4096

// State is the lifecycle state of one scenario: Idle -> Running -> Completed,
// or Failed when the scenario could not be set up.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result is the outcome of one scenario.
type Result struct {
	Scenario int
	Seed     uint64
	State    State
	Totals   sir.Totals
	Wall     time.Duration
	Err      error
}

// Runner executes scenarios and writes their rows to one Tables sink.
// With threads <= 1, or a single scenario, scenarios run one at a time on the
// calling goroutine; otherwise up to threads scenarios run concurrently and a
// single consumer on the calling goroutine writes every row.
type Runner struct {
	tables  Tables
	threads int
}

// NewRunner creates a Runner writing to tables.
func NewRunner(tables Tables, threads int) *Runner {
	return &Runner{tables: tables, threads: threads}
}

// Parallel reports whether the runner uses the worker pool.
func (r *Runner) Parallel() bool {
	return r.threads > 1
}

// Run executes every scenario and returns one Result per scenario, in index order.
//
// A scenario that fails setup is marked Failed and does not stop its
// siblings. Run returns an error when writing output fails, or when every
// scenario failed. It does not commit the tables.
func (r *Runner) Run(scenarios []sim.Parameters) ([]Result, error) {
	logrus.Infof("Running %d scenario(s) with %d thread(s)", len(scenarios), max(r.threads, 1))
	var (
		results []Result
		err     error
	)
	if r.Parallel() && len(scenarios) > 1 {
		results, err = r.runParallel(scenarios)
	} else {
		results, err = r.runSequential(scenarios)
	}
	if err != nil {
		return results, err
	}
	return results, allFailed(results)
}

func (r *Runner) runSequential(scenarios []sim.Parameters) ([]Result, error) {
	results := make([]Result, len(scenarios))
	for i := range results {
		results[i] = Result{Scenario: i, Seed: scenarios[i].RandomSeed, State: StateIdle}
	}
	for i, params := range scenarios {
		var writeErr error
		results[i] = runScenario(i, params, func(rec sim.Record) {
			if writeErr == nil {
				writeErr = r.tables.WriteRow(Row{Scenario: i, Record: rec})
			}
		})
		if writeErr != nil {
			return results, fmt.Errorf("writing scenario %d output: %w", i, writeErr)
		}
	}
	return results, nil
}

func (r *Runner) runParallel(scenarios []sim.Parameters) ([]Result, error) {
	results := make([]Result, len(scenarios))
	for i := range results {
		results[i] = Result{Scenario: i, Seed: scenarios[i].RandomSeed, State: StateIdle}
	}
	rows := make(chan Row, rowBuffer)

	go func() {
		var g errgroup.Group
		g.SetLimit(r.threads)
		for i, params := range scenarios {
			g.Go(func() error {
				results[i] = runScenario(i, params, func(rec sim.Record) {
					rows <- Row{Scenario: i, Record: rec}
				})
				return nil
			})
		}
		_ = g.Wait()
		close(rows)
	}()

	// Keep draining after a write error so that no producer blocks forever.
	var writeErr error
	for row := range rows {
		if writeErr != nil {
			continue
		}
		if err := r.tables.WriteRow(row); err != nil {
			writeErr = fmt.Errorf("writing scenario %d output: %w", row.Scenario, err)
		}
	}
	return results, writeErr
}

// runScenario builds a fresh Context for one parameter set, runs it to an
// empty queue and reports every record through emit.
func runScenario(index int, params sim.Parameters, emit sim.ReportHandler) Result {
	log := logrus.WithField("scenario", index)
	res := Result{Scenario: index, Seed: params.RandomSeed, State: StateRunning}
	start := time.Now()

	ctx := sim.NewContext(sim.NewSimulationKey(params.RandomSeed))
	ctx.SetReportHandler(sim.ReportIncidence, emit)
	ctx.SetReportHandler(sim.ReportDeath, emit)

	model, err := sir.Setup(ctx, params)
	if err != nil {
		res.State = StateFailed
		res.Err = fmt.Errorf("scenario %d: %w", index, err)
		res.Wall = time.Since(start)
		log.Errorf("Scenario %d failed: %v", index, err)
		return res
	}
	res.Totals = model.Run()
	res.State = StateCompleted
	res.Wall = time.Since(start)
	log.WithFields(logrus.Fields{
		"infected": res.Totals.Infected,
		"dead":     res.Totals.Dead,
		"events":   res.Totals.Events,
	}).Infof("Scenario %d completed", index)
	return res
}

// allFailed returns the joined scenario errors when no scenario completed.
func allFailed(results []Result) error {
	if len(results) == 0 {
		return nil
	}
	var errs []error
	for _, res := range results {
		if res.State != StateFailed {
			return nil
		}
		errs = append(errs, res.Err)
	}
	return fmt.Errorf("%w: %w", ErrAllScenariosFailed, errors.Join(errs...))
}

// Failed returns the results of scenarios that failed.
func Failed(results []Result) []Result {
	var failed []Result
	for _, res := range results {
		if res.State == StateFailed {
			failed = append(failed, res)
		}
	}
	return failed
}
