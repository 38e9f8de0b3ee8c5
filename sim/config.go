package sim

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is a parsed parameter document: either one parameter set (a YAML
// mapping) or a list of parameter sets (a YAML sequence).
type Config struct {
	Scenarios []Parameters
	// Multiple is true when the document was a sequence, even of length one.
	Multiple bool
}

// parameterDocument mirrors Parameters with pointer fields so that absent
// keys can be told apart from zero values.
type parameterDocument struct {
	Population                   *int                 `yaml:"population"`
	R0                           *float64             `yaml:"r0"`
	InfectiousPeriod             *float64             `yaml:"infectious_period"`
	InitialInfections            *int                 `yaml:"initial_infections"`
	RandomSeed                   *uint64              `yaml:"random_seed"`
	DeathRate                    *float64             `yaml:"death_rate"`
	InfectionProbabilities       *probabilityDocument `yaml:"infection_probabilities"`
	AgeDistribution              *AgeDistribution     `yaml:"age_distribution,omitempty"`
	InfectiousPeriodDistribution string               `yaml:"infectious_period_distribution,omitempty"`
}

type probabilityDocument struct {
	ChildToChild     *float64 `yaml:"child_to_child"`
	ChildToAdult     *float64 `yaml:"child_to_adult"`
	ChildToElderly   *float64 `yaml:"child_to_elderly"`
	AdultToChild     *float64 `yaml:"adult_to_child"`
	AdultToAdult     *float64 `yaml:"adult_to_adult"`
	AdultToElderly   *float64 `yaml:"adult_to_elderly"`
	ElderlyToChild   *float64 `yaml:"elderly_to_child"`
	ElderlyToAdult   *float64 `yaml:"elderly_to_adult"`
	ElderlyToElderly *float64 `yaml:"elderly_to_elderly"`
}

// LoadConfig reads and parses a YAML parameter document.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML parameter document. Every required parameter
// must be present in every parameter set; nothing is silently defaulted.
func ParseConfig(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("parsing config: empty document")
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var docs []parameterDocument
	cfg := &Config{}
	switch root.Content[0].Kind {
	case yaml.MappingNode:
		var doc parameterDocument
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		docs = []parameterDocument{doc}
	case yaml.SequenceNode:
		if err := decoder.Decode(&docs); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		cfg.Multiple = true
	default:
		return nil, fmt.Errorf("parsing config: expected a parameter set or a list of parameter sets")
	}

	var errs []error
	for i, doc := range docs {
		params, err := doc.parameters()
		if err != nil {
			errs = append(errs, fmt.Errorf("scenario %d: %w", i, err))
			continue
		}
		cfg.Scenarios = append(cfg.Scenarios, params)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (d *parameterDocument) parameters() (Parameters, error) {
	var missing []string
	need := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	need("population", d.Population != nil)
	need("r0", d.R0 != nil)
	need("infectious_period", d.InfectiousPeriod != nil)
	need("initial_infections", d.InitialInfections != nil)
	need("random_seed", d.RandomSeed != nil)
	need("death_rate", d.DeathRate != nil)
	need("infection_probabilities", d.InfectionProbabilities != nil)

	var matrix InfectionMatrix
	if d.InfectionProbabilities != nil {
		entries := d.InfectionProbabilities.entries()
		for src := range NumAgeGroups {
			for dst := range NumAgeGroups {
				v := entries[src][dst]
				name := fmt.Sprintf("infection_probabilities.%s_to_%s", AgeGroup(src), AgeGroup(dst))
				need(name, v != nil)
				if v != nil {
					matrix[src][dst] = *v
				}
			}
		}
	}
	if len(missing) > 0 {
		return Parameters{}, fmt.Errorf("missing required parameters: %s", strings.Join(missing, ", "))
	}

	return Parameters{
		Population:                   *d.Population,
		R0:                           *d.R0,
		InfectiousPeriod:             *d.InfectiousPeriod,
		InitialInfections:            *d.InitialInfections,
		RandomSeed:                   *d.RandomSeed,
		DeathRate:                    *d.DeathRate,
		InfectionProbabilities:       matrix,
		AgeDistribution:              d.AgeDistribution,
		InfectiousPeriodDistribution: d.InfectiousPeriodDistribution,
	}, nil
}

// entries returns the document's fields indexed by (source, contact) age group.
func (d *probabilityDocument) entries() [NumAgeGroups][NumAgeGroups]*float64 {
	return [NumAgeGroups][NumAgeGroups]*float64{
		Child:   {Child: d.ChildToChild, Adult: d.ChildToAdult, Elderly: d.ChildToElderly},
		Adult:   {Child: d.AdultToChild, Adult: d.AdultToAdult, Elderly: d.AdultToElderly},
		Elderly: {Child: d.ElderlyToChild, Adult: d.ElderlyToAdult, Elderly: d.ElderlyToElderly},
	}
}
