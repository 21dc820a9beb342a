package augment

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
)

type step struct {
	name      string
	p         float64
	transform Transform
}

// Pipeline applies a composed Chain. It is safe for concurrent use.
type Pipeline struct {
	steps      []step
	sampleRate int

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSeed makes the pipeline's random decisions reproducible. Concurrent
// callers still receive draws in call order.
func WithSeed(seed uint64) Option {
	return func(p *Pipeline) {
		p.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// Compose validates chain and builds a Pipeline for audio at sampleRate.
// Unknown transform names and bad parameters fail here rather than on the
// first Apply.
func Compose(chain Chain, sampleRate int, opts ...Option) (*Pipeline, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	p := &Pipeline{sampleRate: sampleRate}

	var errs []error
	for i, s := range chain {
		if s.P < 0 || s.P > 1 {
			errs = append(errs, fmt.Errorf("step %d: %w: %s: p=%v outside [0, 1]", i, ErrInvalidParams, s.Name, s.P))
			continue
		}

		t, err := New(s.Name, s.Params)
		if err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i, err))
			continue
		}
		p.steps = append(p.steps, step{name: s.Name, p: s.P, transform: t})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return p, nil
}

// ComposeJSON parses text with ParseChain and composes it.
func ComposeJSON(text string, sampleRate int, opts ...Option) (*Pipeline, error) {
	chain, err := ParseChain(text)
	if err != nil {
		return nil, err
	}

	return Compose(chain, sampleRate, opts...)
}

// Names returns the transform names in application order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}

	return names
}

// Apply runs each step in order with its probability and returns the
// result. samples is never modified; with no step applied the result is a
// copy of it.
func (p *Pipeline) Apply(samples []float32) []float32 {
	rng, run := p.draw()

	out := slices.Clone(samples)
	for i, s := range p.steps {
		if run[i] {
			out = s.transform.Apply(out, p.sampleRate, rng)
		}
	}

	return out
}

// draw takes the step decisions and a private generator for one Apply call
// from the shared source.
func (p *Pipeline) draw() (*rand.Rand, []bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	run := make([]bool, len(p.steps))
	for i, s := range p.steps {
		run[i] = p.rng.Float64() < s.p
	}

	return rand.New(rand.NewPCG(p.rng.Uint64(), p.rng.Uint64())), run
}
