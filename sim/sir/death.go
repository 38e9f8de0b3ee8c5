package sir

import (
	"github.com/sirupsen/logrus"

	"github.com/epimodel/sirsim/sim"
)

// DeathManager observes the Dead transition separately from recovery.
// Dead people are already excluded from contacts by their status and by the
// transmission cancellation; this component only keeps death bookkeeping.
type DeathManager struct {
	deaths int
}

// Init registers the Dead observer.
func (dm *DeathManager) Init(ctx *sim.Context) error {
	ctx.ObserveStatus(sim.Dead, dm.onDeath)
	return nil
}

func (dm *DeathManager) onDeath(ctx *sim.Context, id sim.PersonID, _ sim.DiseaseStatus) {
	dm.deaths++
	logrus.Tracef("[t=%.6f] person %d died", ctx.Now(), id)
}

// Deaths returns the number of deaths so far.
func (dm *DeathManager) Deaths() int {
	return dm.deaths
}
