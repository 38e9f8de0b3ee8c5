package sim

import "fmt"

// PersonID is the stable handle of one agent: its row in the attribute table.
type PersonID int

// AgeGroup is the mixing stratum of a person.
type AgeGroup uint8

const (
	Child AgeGroup = iota
	Adult
	Elderly
)

// NumAgeGroups is the number of AgeGroup values.
const NumAgeGroups = 3

func (a AgeGroup) String() string {
	switch a {
	case Child:
		return "child"
	case Adult:
		return "adult"
	case Elderly:
		return "elderly"
	}
	return fmt.Sprintf("AgeGroup(%d)", uint8(a))
}

// DiseaseStatus is the compartment a person currently occupies.
type DiseaseStatus uint8

const (
	Susceptible DiseaseStatus = iota
	Infectious
	Recovered
	Dead
)

func (s DiseaseStatus) String() string {
	switch s {
	case Susceptible:
		return "S"
	case Infectious:
		return "I"
	case Recovered:
		return "R"
	case Dead:
		return "D"
	}
	return fmt.Sprintf("DiseaseStatus(%d)", uint8(s))
}

// CanTransition reports whether from -> to is an edge of the S -> I -> {R, D} graph.
func CanTransition(from, to DiseaseStatus) bool {
	switch from {
	case Susceptible:
		return to == Infectious
	case Infectious:
		return to == Recovered || to == Dead
	}
	return false
}

// StatusObserver is invoked synchronously after a person's status changes.
// prev is the status the person held before the change.
type StatusObserver func(ctx *Context, id PersonID, prev DiseaseStatus)

// PersonStore is a struct-of-arrays attribute table indexed by PersonID,
// with one column per attribute kind.
type PersonStore struct {
	age    []AgeGroup
	status []DiseaseStatus
}

// Len returns the number of people.
func (ps *PersonStore) Len() int {
	return len(ps.status)
}

// Add appends a Susceptible person in the given age group.
func (ps *PersonStore) Add(age AgeGroup) PersonID {
	ps.age = append(ps.age, age)
	ps.status = append(ps.status, Susceptible)
	return PersonID(len(ps.status) - 1)
}

// Age returns the age group of id.
func (ps *PersonStore) Age(id PersonID) AgeGroup {
	return ps.age[id]
}

// Status returns the disease status of id.
func (ps *PersonStore) Status(id PersonID) DiseaseStatus {
	return ps.status[id]
}

// CountByStatus returns how many people currently hold each status.
func (ps *PersonStore) CountByStatus() map[DiseaseStatus]int {
	counts := make(map[DiseaseStatus]int, 4)
	for _, s := range ps.status {
		counts[s]++
	}
	return counts
}
