package sim

import (
	"hash/fnv"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible scenario run.
// Two scenarios with the same SimulationKey and identical parameters
// MUST produce bit-for-bit identical event logs.
type SimulationKey uint64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed uint64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemPopulation drives age-group assignment at population load.
	SubsystemPopulation = "population"

	// SubsystemSeeder selects the initial infectious cohort.
	SubsystemSeeder = "seeder"

	// SubsystemTransmission drives contact times, contact selection and
	// the per-contact infection draw. All three share one stream.
	SubsystemTransmission = "transmission"

	// SubsystemInfection drives infectious durations and recovery/death outcomes.
	SubsystemInfection = "infection"
)

// pcgIncrement is the fixed second PCG state word for every stream.
const pcgIncrement = 0xda3e39cb94b95bdb

// === Stream ===

// Stream is one named, seeded random sequence. Uniform and exponential draws
// consume the same underlying PCG source, so their order defines the sequence.
type Stream struct {
	src *rand.PCG
	rng *rand.Rand
}

func newStream(seed uint64) *Stream {
	src := rand.NewPCG(seed, pcgIncrement)
	return &Stream{src: src, rng: rand.New(src)}
}

// Float64 returns a uniform draw in [0, 1).
func (s *Stream) Float64() float64 {
	return s.rng.Float64()
}

// IntN returns a uniform draw in [0, n). Panics if n <= 0.
func (s *Stream) IntN(n int) int {
	return s.rng.IntN(n)
}

// Exp returns an exponential draw with the given rate (mean 1/rate).
func (s *Stream) Exp(rate float64) float64 {
	return distuv.Exponential{Rate: rate, Src: s.src}.Rand()
}

// Source exposes the underlying source for gonum samplers.
func (s *Stream) Source() rand.Source {
	return s.src
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated streams per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Each scenario owns its own instance and
// only its event loop goroutine touches it.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*Stream
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*Stream),
	}
}

// ForSubsystem returns the stream for the named subsystem.
// The same name always returns the same *Stream (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *Stream {
	if s, ok := p.subsystems[name]; ok {
		return s
	}
	s := newStream(uint64(p.key) ^ fnv1a64(name))
	p.subsystems[name] = s
	return s
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
