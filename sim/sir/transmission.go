package sir

import (
	"fmt"

	"github.com/epimodel/sirsim/sim"
)

// TransmissionManager drives the contact process of every infectious person.
//
// Each infectious person has at most one pending contact plan, held in a map
// owned by this instance. The plan is canceled the moment its person leaves
// Infectious, so a contact never fires for a source that is not infectious.
//
// Contact times, contact selection and infection draws all consume the
// transmission stream.
type TransmissionManager struct {
	pending map[sim.PersonID]sim.PlanID

	rate       float64
	population int
	matrix     sim.InfectionMatrix
	rng        *sim.Stream

	contacts      int
	transmissions int
}

// NewTransmissionManager creates a TransmissionManager for one scenario.
func NewTransmissionManager() *TransmissionManager {
	return &TransmissionManager{pending: make(map[sim.PersonID]sim.PlanID)}
}

// Init registers the status observers. It must run before any other
// component registers observers for Recovered or Dead, so that cancellation
// precedes every other side effect of leaving Infectious.
func (tm *TransmissionManager) Init(ctx *sim.Context) error {
	params, err := ctx.Parameters()
	if err != nil {
		return err
	}
	tm.rate = params.ContactRate()
	tm.population = params.Population
	tm.matrix = params.InfectionProbabilities
	tm.rng = ctx.RNG(sim.SubsystemTransmission)

	ctx.ObserveStatus(sim.Infectious, tm.onInfectious)
	ctx.ObserveStatus(sim.Recovered, tm.onNoLongerInfectious)
	ctx.ObserveStatus(sim.Dead, tm.onNoLongerInfectious)
	return nil
}

func (tm *TransmissionManager) onInfectious(ctx *sim.Context, id sim.PersonID, _ sim.DiseaseStatus) {
	tm.scheduleNextContact(ctx, id)
}

func (tm *TransmissionManager) onNoLongerInfectious(ctx *sim.Context, id sim.PersonID, _ sim.DiseaseStatus) {
	tm.cancelNextContact(ctx, id)
}

func (tm *TransmissionManager) scheduleNextContact(ctx *sim.Context, source sim.PersonID) {
	if tm.population <= 1 || tm.rate <= 0 {
		return
	}
	at := ctx.Now() + tm.rng.Exp(tm.rate)
	tm.pending[source] = ctx.Schedule(at, func(ctx *sim.Context) {
		tm.attemptInfection(ctx, source)
	})
}

func (tm *TransmissionManager) cancelNextContact(ctx *sim.Context, source sim.PersonID) {
	id, ok := tm.pending[source]
	if !ok {
		return
	}
	delete(tm.pending, source)
	ctx.Cancel(id)
}

// attemptInfection resolves one contact of source, then schedules its next one.
func (tm *TransmissionManager) attemptInfection(ctx *sim.Context, source sim.PersonID) {
	delete(tm.pending, source)
	people := ctx.People()
	if people.Status(source) != sim.Infectious {
		panic(fmt.Sprintf("attemptInfection: contact fired for person %d with status %s", source, people.Status(source)))
	}
	if tm.population <= 1 {
		return
	}

	// Terminates with probability 1 since population > 1.
	var contact sim.PersonID
	for {
		contact = sim.PersonID(tm.rng.IntN(tm.population))
		if contact != source {
			break
		}
	}
	tm.contacts++

	if people.Status(contact) == sim.Susceptible {
		p := tm.matrix.Lookup(people.Age(source), people.Age(contact))
		if tm.rng.Float64() < p {
			tm.transmissions++
			ctx.SetStatus(contact, sim.Infectious)
		}
	}
	tm.scheduleNextContact(ctx, source)
}

// Pending returns the number of people with a scheduled contact.
func (tm *TransmissionManager) Pending() int {
	return len(tm.pending)
}

// HasPendingContact reports whether id has a scheduled contact.
func (tm *TransmissionManager) HasPendingContact(id sim.PersonID) bool {
	_, ok := tm.pending[id]
	return ok
}

// Contacts returns the number of contacts resolved so far.
func (tm *TransmissionManager) Contacts() int {
	return tm.contacts
}

// Transmissions returns the number of contacts that caused an infection.
func (tm *TransmissionManager) Transmissions() int {
	return tm.transmissions
}
