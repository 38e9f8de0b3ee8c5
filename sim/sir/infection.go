package sir

import (
	"github.com/epimodel/sirsim/sim"
)

// InfectionManager owns the Infectious -> {Recovered, Dead} transition.
// Each person becomes Infectious at most once, so at most one outcome plan
// is ever scheduled per person.
type InfectionManager struct {
	period    float64
	law       string
	deathRate float64
	rng       *sim.Stream

	scheduled int
}

// NewInfectionManager creates an InfectionManager for one scenario.
func NewInfectionManager() *InfectionManager {
	return &InfectionManager{}
}

// Init registers the observer that schedules outcomes.
func (im *InfectionManager) Init(ctx *sim.Context) error {
	params, err := ctx.Parameters()
	if err != nil {
		return err
	}
	im.period = params.InfectiousPeriod
	im.law = params.InfectiousPeriodDistribution
	im.deathRate = params.DeathRate
	im.rng = ctx.RNG(sim.SubsystemInfection)

	ctx.ObserveStatus(sim.Infectious, im.onInfectious)
	return nil
}

func (im *InfectionManager) onInfectious(ctx *sim.Context, id sim.PersonID, _ sim.DiseaseStatus) {
	im.scheduled++
	ctx.Schedule(ctx.Now()+im.infectiousDuration(), func(ctx *sim.Context) {
		im.resolveOutcome(ctx, id)
	})
}

// infectiousDuration samples how long a person stays infectious.
func (im *InfectionManager) infectiousDuration() float64 {
	if im.law == sim.PeriodConstant {
		return im.period
	}
	return im.rng.Exp(1 / im.period)
}

func (im *InfectionManager) resolveOutcome(ctx *sim.Context, id sim.PersonID) {
	if im.rng.Float64() < im.deathRate {
		ctx.SetStatus(id, sim.Dead)
		return
	}
	ctx.SetStatus(id, sim.Recovered)
}

// Scheduled returns the number of outcome plans scheduled so far.
func (im *InfectionManager) Scheduled() int {
	return im.scheduled
}
