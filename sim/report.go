package sim

import "fmt"

// ReportKind identifies which report table a record belongs to.
type ReportKind uint8

const (
	// ReportIncidence records a person becoming Infectious.
	ReportIncidence ReportKind = iota
	// ReportDeath records a person becoming Dead.
	ReportDeath
)

func (k ReportKind) String() string {
	switch k {
	case ReportIncidence:
		return "incidence"
	case ReportDeath:
		return "death"
	}
	return fmt.Sprintf("ReportKind(%d)", uint8(k))
}

// Record is one immutable report row of a single scenario.
type Record struct {
	Kind     ReportKind
	Time     float64
	PersonID PersonID
	// Status is the status the person transitioned into.
	Status DiseaseStatus
}

// ReportHandler receives every record of one kind, in emission order.
type ReportHandler func(Record)
