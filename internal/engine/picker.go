package engine

import (
	"math/rand"
	"sync"
	"time"
)

// Picker chooses one of n options. It is the only source of randomness in a run,
// so tests swap it for a fixed sequence.
type Picker interface {
	Pick(n int) int
}

// RandPicker draws uniformly from a seeded math/rand source.
type RandPicker struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed int64
}

// NewRandPicker creates a seeded picker. A zero seed uses the current time.
func NewRandPicker(seed int64) *RandPicker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandPicker{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed in use so a run can be reproduced.
func (p *RandPicker) Seed() int64 {
	return p.seed
}

// Pick returns a value in [0, n).
func (p *RandPicker) Pick(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

// SequencePicker replays a fixed list of choices and wraps around when exhausted.
type SequencePicker struct {
	choices []int
	next    int
}

// NewSequencePicker creates a picker that returns choices in order.
func NewSequencePicker(choices ...int) *SequencePicker {
	return &SequencePicker{choices: choices}
}

// Pick returns the next scripted choice modulo n.
func (p *SequencePicker) Pick(n int) int {
	if len(p.choices) == 0 {
		return 0
	}
	c := p.choices[p.next%len(p.choices)]
	p.next++
	return ((c % n) + n) % n
}
