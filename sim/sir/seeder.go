package sir

import (
	"fmt"

	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/epimodel/sirsim/sim"
)

// InfectionSeeder infects InitialInfections distinct people, chosen uniformly
// without replacement, at time 0.
type InfectionSeeder struct{}

// Init schedules the seeding plan. With zero initial infections nothing is
// scheduled and the scenario ends right after population load.
func (InfectionSeeder) Init(ctx *sim.Context) error {
	params, err := ctx.Parameters()
	if err != nil {
		return err
	}
	k, n := params.InitialInfections, ctx.People().Len()
	if k > n {
		return fmt.Errorf("%w: initial_infections=%d, population=%d", sim.ErrTooManyInitialInfections, k, n)
	}
	if k == 0 {
		return nil
	}
	ctx.Schedule(0, func(ctx *sim.Context) {
		seedInfections(ctx, k)
	})
	return nil
}

func seedInfections(ctx *sim.Context, k int) {
	cohort := make([]int, k)
	sampleuv.WithoutReplacement(cohort, ctx.People().Len(), ctx.RNG(sim.SubsystemSeeder).Source())
	for _, idx := range cohort {
		ctx.SetStatus(sim.PersonID(idx), sim.Infectious)
	}
}
