package sir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epimodel/sirsim/sim"
	"github.com/epimodel/sirsim/sim/internal/testutil"
)

func TestInfectionManager_ConstantPeriodResolvesAtExactTime(t *testing.T) {
	// GIVEN no transmission, a constant period of 3 and certain death
	params := testutil.Params(20, 5, 0.0, 3.0, 1.0, 8)
	params.InfectiousPeriodDistribution = sim.PeriodConstant
	r := newTestRun(t, params)

	totals := r.run()

	// THEN every seed dies exactly one period after time 0
	deaths := r.recordsOf(sim.ReportDeath)
	require.Len(t, deaths, 5)
	for _, rec := range deaths {
		assert.Equal(t, 3.0, rec.Time)
	}
	assert.Equal(t, 3.0, totals.EndTime)
}

func TestInfectionManager_OneOutcomePerInfection(t *testing.T) {
	r := newTestRun(t, testutil.Params(120, 2, 2.5, 5.0, 0.4, 19))
	totals := r.run()

	assert.Equal(t, totals.Infected, r.model.Infection.Scheduled())
	for id, path := range r.history {
		outcomes := 0
		for _, s := range path {
			if s == sim.Recovered || s == sim.Dead {
				outcomes++
			}
		}
		assert.Equal(t, 1, outcomes, "person %d path %v", id, path)
	}
}

func TestInfectionManager_DeathRateSplitsOutcomes(t *testing.T) {
	// GIVEN many isolated seeds and a death rate of 0.3
	params := testutil.Params(2000, 2000, 0.0, 1.0, 0.3, 4)
	r := newTestRun(t, params)

	totals := r.run()

	// THEN roughly 30% die
	assert.Equal(t, 2000, totals.Recovered+totals.Dead)
	assert.InDelta(t, 0.3, float64(totals.Dead)/2000, 0.05)
}

func TestDeathManager_CountsOnlyDeaths(t *testing.T) {
	r := newTestRun(t, testutil.Params(10, 0, 2.0, 5.0, 0, 1))
	r.ctx.SetStatus(1, sim.Infectious)
	r.ctx.SetStatus(2, sim.Infectious)
	r.ctx.SetStatus(1, sim.Recovered)
	r.ctx.SetStatus(2, sim.Dead)

	assert.Equal(t, 1, r.model.Death.Deaths())
	require.Len(t, r.recordsOf(sim.ReportDeath), 1)
	assert.Equal(t, sim.PersonID(2), r.recordsOf(sim.ReportDeath)[0].PersonID)
	assert.Len(t, r.recordsOf(sim.ReportIncidence), 2)
}
