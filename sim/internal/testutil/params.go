// Package testutil provides shared test infrastructure for sirsim.
// It consolidates parameter builders and record assertions used across
// the sim/sir and sim/scenario test packages.
package testutil

import (
	"testing"

	"github.com/epimodel/sirsim/sim"
)

// Params returns a valid parameter set with a uniform mixing matrix of 1.0,
// exponential infectious periods and the default age distribution.
func Params(population, initial int, r0, period, deathRate float64, seed uint64) sim.Parameters {
	return sim.Parameters{
		Population:             population,
		R0:                     r0,
		InfectiousPeriod:       period,
		InitialInfections:      initial,
		DeathRate:              deathRate,
		RandomSeed:             seed,
		InfectionProbabilities: sim.UniformMatrix(1.0),
	}
}

// RequireMonotoneTimes fails the test if record times decrease.
func RequireMonotoneTimes(t *testing.T, records []sim.Record) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		if records[i].Time < records[i-1].Time {
			t.Fatalf("record %d time %f precedes record %d time %f",
				i, records[i].Time, i-1, records[i-1].Time)
		}
	}
}
