package sir

import (
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/epimodel/sirsim/sim"
)

// PopulationLoader creates the fixed set of people of a scenario, each
// Susceptible and assigned an age group drawn from the age distribution.
type PopulationLoader struct{}

// Init creates Population people. It must run before every other component.
func (PopulationLoader) Init(ctx *sim.Context) error {
	params, err := ctx.Parameters()
	if err != nil {
		return err
	}
	ages := distuv.NewCategorical(params.Ages().Weights(), ctx.RNG(sim.SubsystemPopulation).Source())
	for range params.Population {
		ctx.AddPerson(sim.AgeGroup(ages.Rand()))
	}
	logrus.Debugf("Loaded population of %d", ctx.People().Len())
	return nil
}
