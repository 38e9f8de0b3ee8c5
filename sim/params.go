package sim

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMissingParameters is returned when a component reads global
	// parameters from a Context that never had them set.
	ErrMissingParameters = errors.New("global parameters not specified")

	// ErrTooManyInitialInfections is returned when the seed cohort exceeds the population.
	ErrTooManyInitialInfections = errors.New("initial_infections exceeds population")
)

// Infectious-period sampling laws.
const (
	PeriodExponential = "exponential"
	PeriodConstant    = "constant"
)

// validPeriodDistributions maps accepted infectious_period_distribution values.
var validPeriodDistributions = map[string]bool{
	"":                true, // empty defaults to exponential
	PeriodExponential: true,
	PeriodConstant:    true,
}

// InfectionMatrix holds the per-contact infection probability for each
// ordered (source, contact) age-group pair. It need not be symmetric.
type InfectionMatrix [NumAgeGroups][NumAgeGroups]float64

// UniformMatrix returns a matrix with every entry set to p.
func UniformMatrix(p float64) InfectionMatrix {
	var m InfectionMatrix
	for i := range m {
		for j := range m[i] {
			m[i][j] = p
		}
	}
	return m
}

// Lookup returns the probability that an infectious person in group src
// infects a susceptible contact in group dst.
func (m InfectionMatrix) Lookup(src, dst AgeGroup) float64 {
	return m[src][dst]
}

// AgeDistribution holds relative weights for age-group assignment at population load.
type AgeDistribution struct {
	Child   float64 `yaml:"child"`
	Adult   float64 `yaml:"adult"`
	Elderly float64 `yaml:"elderly"`
}

// DefaultAgeDistribution is used when a parameter set does not configure one.
var DefaultAgeDistribution = AgeDistribution{Child: 0.25, Adult: 0.55, Elderly: 0.20}

// Weights returns the weights indexed by AgeGroup.
func (d AgeDistribution) Weights() []float64 {
	return []float64{d.Child, d.Adult, d.Elderly}
}

// Parameters are the global parameters of one scenario.
type Parameters struct {
	Population        int
	R0                float64
	InfectiousPeriod  float64 // mean duration, in simulation time units
	InitialInfections int
	DeathRate         float64 // probability an infection ends in death
	RandomSeed        uint64

	InfectionProbabilities InfectionMatrix

	// AgeDistribution is nil when the default should be used.
	AgeDistribution *AgeDistribution
	// InfectiousPeriodDistribution is "exponential" (default) or "constant".
	InfectiousPeriodDistribution string
}

// Ages returns the configured age distribution or the default.
func (p *Parameters) Ages() AgeDistribution {
	if p.AgeDistribution == nil {
		return DefaultAgeDistribution
	}
	return *p.AgeDistribution
}

// ContactRate is the rate of the exponential inter-contact time of one infectious person.
func (p *Parameters) ContactRate() float64 {
	return p.R0 / p.InfectiousPeriod
}

// Validate checks that all parameters are within range.
func (p *Parameters) Validate() error {
	if p.Population < 0 {
		return fmt.Errorf("population must be non-negative, got %d", p.Population)
	}
	if p.InitialInfections < 0 {
		return fmt.Errorf("initial_infections must be non-negative, got %d", p.InitialInfections)
	}
	if p.InitialInfections > p.Population {
		return fmt.Errorf("%w: initial_infections=%d, population=%d",
			ErrTooManyInitialInfections, p.InitialInfections, p.Population)
	}
	if err := validateFinite("r0", p.R0); err != nil {
		return err
	}
	if p.R0 < 0 {
		return fmt.Errorf("r0 must be non-negative, got %f", p.R0)
	}
	if err := validateFinitePositive("infectious_period", p.InfectiousPeriod); err != nil {
		return err
	}
	if err := validateProbability("death_rate", p.DeathRate); err != nil {
		return err
	}
	for src := range NumAgeGroups {
		for dst := range NumAgeGroups {
			name := fmt.Sprintf("infection_probabilities.%s_to_%s", AgeGroup(src), AgeGroup(dst))
			if err := validateProbability(name, p.InfectionProbabilities[src][dst]); err != nil {
				return err
			}
		}
	}
	if p.AgeDistribution != nil {
		sum := 0.0
		for i, w := range p.AgeDistribution.Weights() {
			name := "age_distribution." + AgeGroup(i).String()
			if err := validateFinite(name, w); err != nil {
				return err
			}
			if w < 0 {
				return fmt.Errorf("%s must be non-negative, got %f", name, w)
			}
			sum += w
		}
		if sum <= 0 {
			return fmt.Errorf("age_distribution weights must sum to a positive value")
		}
	}
	if !validPeriodDistributions[p.InfectiousPeriodDistribution] {
		return fmt.Errorf("unknown infectious_period_distribution %q; valid: exponential, constant",
			p.InfectiousPeriodDistribution)
	}
	return nil
}

func validateFinite(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if err := validateFinite(name, val); err != nil {
		return err
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}

func validateProbability(name string, val float64) error {
	if err := validateFinite(name, val); err != nil {
		return err
	}
	if val < 0 || val > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %f", name, val)
	}
	return nil
}
