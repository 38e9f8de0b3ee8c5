// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Context is one isolated simulation instance: clock, plan queue, people,
// global parameters, random streams and report handlers. A Context is driven
// by a single goroutine and is never shared across scenarios.
type Context struct {
	clock  float64
	queue  planQueue
	plans  map[PlanID]*plan
	nextID PlanID
	seq    uint64

	people    PersonStore
	observers map[DiseaseStatus][]StatusObserver
	notifying bool

	params  *Parameters
	rng     *PartitionedRNG
	reports map[ReportKind]ReportHandler

	eventsExecuted int
}

// NewContext creates an empty Context whose random streams derive from key.
func NewContext(key SimulationKey) *Context {
	return &Context{
		queue:     make(planQueue, 0),
		plans:     make(map[PlanID]*plan),
		observers: make(map[DiseaseStatus][]StatusObserver),
		rng:       NewPartitionedRNG(key),
		reports:   make(map[ReportKind]ReportHandler),
	}
}

// Now returns the current simulation time.
func (c *Context) Now() float64 {
	return c.clock
}

// Schedule adds a plan that fires at time at. Plans at equal times fire in
// insertion order. Scheduling before the current time panics.
func (c *Context) Schedule(at float64, fn PlanFunc) PlanID {
	if at < c.clock {
		panic(fmt.Sprintf("Schedule: time %f is before current time %f", at, c.clock))
	}
	c.nextID++
	c.seq++
	p := &plan{id: c.nextID, time: at, seq: c.seq, fn: fn}
	heap.Push(&c.queue, p)
	c.plans[p.id] = p
	return p.id
}

// Cancel removes a pending plan. It reports false if the plan already fired
// or was already canceled.
func (c *Context) Cancel(id PlanID) bool {
	p, ok := c.plans[id]
	if !ok {
		return false
	}
	heap.Remove(&c.queue, p.index)
	delete(c.plans, id)
	return true
}

// Pending returns the number of plans waiting in the queue.
func (c *Context) Pending() int {
	return c.queue.Len()
}

// EventsExecuted returns the number of plans that have fired.
func (c *Context) EventsExecuted() int {
	return c.eventsExecuted
}

// Run executes plans in (time, insertion) order until the queue is empty.
func (c *Context) Run() {
	for c.queue.Len() > 0 {
		p := heap.Pop(&c.queue).(*plan)
		delete(c.plans, p.id)
		c.clock = p.time
		logrus.Tracef("[t=%.6f] Executing plan %d", c.clock, p.id)
		p.fn(c)
		c.eventsExecuted++
	}
	logrus.Debugf("[t=%.6f] Simulation ended after %d events", c.clock, c.eventsExecuted)
}

// === People ===

// People returns the attribute table. Status writes go through SetStatus.
func (c *Context) People() *PersonStore {
	return &c.people
}

// AddPerson appends a Susceptible person.
func (c *Context) AddPerson(age AgeGroup) PersonID {
	return c.people.Add(age)
}

// ObserveStatus registers an observer for transitions into status.
// Observers run in registration order.
func (c *Context) ObserveStatus(status DiseaseStatus, obs StatusObserver) {
	c.observers[status] = append(c.observers[status], obs)
}

// SetStatus moves id to status and notifies the observers of status.
// Illegal transitions and calls made from inside an observer panic.
func (c *Context) SetStatus(id PersonID, status DiseaseStatus) {
	if c.notifying {
		panic(fmt.Sprintf("SetStatus: reentrant status change of person %d to %s from an observer", id, status))
	}
	prev := c.people.status[id]
	if !CanTransition(prev, status) {
		panic(fmt.Sprintf("SetStatus: illegal transition %s -> %s for person %d", prev, status, id))
	}
	c.people.status[id] = status

	c.notifying = true
	defer func() { c.notifying = false }()
	for _, obs := range c.observers[status] {
		obs(c, id, prev)
	}
}

// === Parameters ===

// SetParameters stores the global parameters of this instance.
func (c *Context) SetParameters(p Parameters) {
	c.params = &p
}

// Parameters returns the global parameters, or ErrMissingParameters.
func (c *Context) Parameters() (*Parameters, error) {
	if c.params == nil {
		return nil, ErrMissingParameters
	}
	return c.params, nil
}

// === Random streams ===

// RNG returns the named random stream of this instance.
func (c *Context) RNG(subsystem string) *Stream {
	return c.rng.ForSubsystem(subsystem)
}

// === Reports ===

// SetReportHandler installs the handler for one report kind.
func (c *Context) SetReportHandler(kind ReportKind, h ReportHandler) {
	c.reports[kind] = h
}

// Emit hands a record to the handler for its kind. Records of kinds without
// a handler are dropped.
func (c *Context) Emit(rec Record) {
	if h, ok := c.reports[rec.Kind]; ok {
		h(rec)
	}
}
