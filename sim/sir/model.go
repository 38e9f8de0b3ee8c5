// Package sir implements the agent-based SIR+D model on top of the sim substrate:
// population loading, infection seeding, transmission, infection outcomes,
// death bookkeeping and the incidence/death reports.
package sir

import (
	"fmt"

	"github.com/epimodel/sirsim/sim"
)

// Component is initialized once per scenario, before the event loop starts.
type Component interface {
	Init(ctx *sim.Context) error
}

// Model is the set of components wired into one scenario Context.
type Model struct {
	Transmission *TransmissionManager
	Infection    *InfectionManager
	Death        *DeathManager

	ctx *sim.Context
}

// Totals summarizes a scenario after (or during) its run.
type Totals struct {
	Population    int
	Infected      int // people who ever became Infectious
	Recovered     int
	Dead          int
	Contacts      int
	Transmissions int
	Events        int
	EndTime       float64
}

// Setup validates params, stores them in ctx and initializes every component.
//
// Initialization order is fixed: the population exists before anything reads
// it, and the transmission observers are registered before every other
// observer so that a pending contact is canceled first when a person leaves
// Infectious. The seeder runs last.
func Setup(ctx *sim.Context, params sim.Parameters) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	ctx.SetParameters(params)

	m := &Model{
		Transmission: NewTransmissionManager(),
		Infection:    NewInfectionManager(),
		Death:        &DeathManager{},
		ctx:          ctx,
	}
	components := []Component{
		PopulationLoader{},
		m.Transmission,
		m.Infection,
		m.Death,
		IncidenceReport{},
		DeathReport{},
		InfectionSeeder{},
	}
	for _, c := range components {
		if err := c.Init(ctx); err != nil {
			return nil, fmt.Errorf("initializing %T: %w", c, err)
		}
	}
	return m, nil
}

// Run executes the scenario until its plan queue is empty.
func (m *Model) Run() Totals {
	m.ctx.Run()
	return m.Totals()
}

// Totals returns the current scenario totals.
func (m *Model) Totals() Totals {
	counts := m.ctx.People().CountByStatus()
	return Totals{
		Population:    m.ctx.People().Len(),
		Infected:      counts[sim.Infectious] + counts[sim.Recovered] + counts[sim.Dead],
		Recovered:     counts[sim.Recovered],
		Dead:          counts[sim.Dead],
		Contacts:      m.Transmission.Contacts(),
		Transmissions: m.Transmission.Transmissions(),
		Events:        m.ctx.EventsExecuted(),
		EndTime:       m.ctx.Now(),
	}
}
