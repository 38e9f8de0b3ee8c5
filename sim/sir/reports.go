package sir

import "github.com/epimodel/sirsim/sim"

// IncidenceReport emits one record per transition into Infectious.
type IncidenceReport struct{}

// Init registers the Infectious observer.
func (IncidenceReport) Init(ctx *sim.Context) error {
	ctx.ObserveStatus(sim.Infectious, func(ctx *sim.Context, id sim.PersonID, _ sim.DiseaseStatus) {
		ctx.Emit(sim.Record{Kind: sim.ReportIncidence, Time: ctx.Now(), PersonID: id, Status: sim.Infectious})
	})
	return nil
}

// DeathReport emits one record per transition into Dead.
type DeathReport struct{}

// Init registers the Dead observer.
func (DeathReport) Init(ctx *sim.Context) error {
	ctx.ObserveStatus(sim.Dead, func(ctx *sim.Context, id sim.PersonID, _ sim.DiseaseStatus) {
		ctx.Emit(sim.Record{Kind: sim.ReportDeath, Time: ctx.Now(), PersonID: id, Status: sim.Dead})
	})
	return nil
}
