package sir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/epimodel/sirsim/sim"
)

// testRun is one scenario under test with every record and status change captured.
type testRun struct {
	ctx     *sim.Context
	model   *Model
	records []sim.Record
	history map[sim.PersonID][]sim.DiseaseStatus
}

func newTestRun(t *testing.T, params sim.Parameters) *testRun {
	t.Helper()
	ctx := sim.NewContext(sim.NewSimulationKey(params.RandomSeed))
	r := &testRun{ctx: ctx, history: make(map[sim.PersonID][]sim.DiseaseStatus)}
	collect := func(rec sim.Record) { r.records = append(r.records, rec) }
	ctx.SetReportHandler(sim.ReportIncidence, collect)
	ctx.SetReportHandler(sim.ReportDeath, collect)

	model, err := Setup(ctx, params)
	require.NoError(t, err)
	r.model = model

	for _, s := range []sim.DiseaseStatus{sim.Infectious, sim.Recovered, sim.Dead} {
		ctx.ObserveStatus(s, func(_ *sim.Context, id sim.PersonID, _ sim.DiseaseStatus) {
			r.history[id] = append(r.history[id], s)
		})
	}
	return r
}

func (r *testRun) run() Totals {
	return r.model.Run()
}

func (r *testRun) recordsOf(kind sim.ReportKind) []sim.Record {
	var out []sim.Record
	for _, rec := range r.records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}
