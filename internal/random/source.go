// Package random provides the seeded random sources dice are drawn from.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Source draws uniform die values and exposes the seed it was built from,
// so a roll can be replayed later with NewSeeded.
type Source interface {
	// Roll returns a uniform value in [1, sides].
	Roll(sides int) int
	// Seed returns the seed the source was constructed with.
	Seed() uint64
}

type source struct {
	seed uint64
	rng  *rand.Rand
}

// NewSeeded returns a deterministic Source: identical seeds produce
// identical draw sequences.
func NewSeeded(seed uint64) Source {
	return &source{
		seed: seed,
		rng:  rand.New(rand.NewSource(int64(seed))),
	}
}

// New returns a Source seeded from OS entropy.
func New() (Source, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("failed to read random seed: %w", err)
	}
	return NewSeeded(binary.LittleEndian.Uint64(b[:])), nil
}

func (s *source) Roll(sides int) int {
	if sides < 1 {
		return 1
	}
	return s.rng.Intn(sides) + 1
}

func (s *source) Seed() uint64 {
	return s.seed
}

// Scripted replays a fixed sequence of values and is intended for tests.
// Once the sequence is exhausted every draw returns 1.
type Scripted struct {
	values []int
	next   int
}

// NewScripted returns a Scripted source that yields the given values in
// order.
func NewScripted(values ...int) *Scripted {
	return &Scripted{values: values}
}

func (s *Scripted) Roll(int) int {
	if s.next >= len(s.values) {
		return 1
	}
	value := s.values[s.next]
	s.next++
	return value
}

func (s *Scripted) Seed() uint64 {
	return 0
}

// Drawn reports how many values have been consumed.
func (s *Scripted) Drawn() int {
	return s.next
}
