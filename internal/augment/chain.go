// Package augment applies an ordered, randomized chain of audio transforms to
// float32 sample arrays.
//
// A chain is described as JSON: a list of [name, params] pairs where params
// may carry a "p" entry giving the probability that the step runs:
//
//	[["AddGaussianNoise", {"min_amplitude": 0.001, "max_amplitude": 0.015, "p": 0.5}],
//	 ["Reverse", {"p": 0.5}]]
package augment

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownTransform is returned for a step naming no registered transform.
	ErrUnknownTransform = errors.New("unknown transform")
	// ErrInvalidParams is returned for unknown, malformed or out-of-range parameters.
	ErrInvalidParams = errors.New("invalid transform parameters")
)

// DefaultProbability is used for steps that do not set "p".
const DefaultProbability = 0.5

// DefaultChainJSON is the chain used when none is configured.
const DefaultChainJSON = `[
  ["AddGaussianNoise", {"min_amplitude": 0.001, "max_amplitude": 0.015, "p": 0.5}],
  ["TimeStretch", {"min_rate": 0.8, "max_rate": 1.25, "p": 0.5}],
  ["PitchShift", {"min_semitones": -4, "max_semitones": 4, "p": 0.5}],
  ["Shift", {"min_fraction": -0.5, "max_fraction": 0.5, "p": 0.5}],
  ["Reverse", {"p": 0.5}]
]`

// Step is one entry of a Chain.
type Step struct {
	Name   string
	Params map[string]float64
	P      float64
}

// Chain is an ordered list of steps.
type Chain []Step

// DefaultChain returns the parsed DefaultChainJSON.
func DefaultChain() Chain {
	chain, err := ParseChain(DefaultChainJSON)
	if err != nil {
		panic(fmt.Sprintf("augment: default chain: %v", err))
	}

	return chain
}

// ParseChain decodes the JSON form of a Chain. Boolean parameter values are
// read as 1 or 0. Transform names and parameter names are checked by
// Compose, not here.
func ParseChain(text string) (Chain, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse augmentation chain: %w", err)
	}

	chain := make(Chain, 0, len(raw))
	for i, entry := range raw {
		step, err := parseStep(entry)
		if err != nil {
			return nil, fmt.Errorf("augmentation step %d: %w", i, err)
		}
		chain = append(chain, step)
	}

	return chain, nil
}

func parseStep(entry json.RawMessage) (Step, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(entry, &pair); err != nil {
		return Step{}, fmt.Errorf("%w: step must be a [name, params] pair", ErrInvalidParams)
	}
	if len(pair) < 1 || len(pair) > 2 {
		return Step{}, fmt.Errorf("%w: step must be a [name, params] pair", ErrInvalidParams)
	}

	var step Step
	if err := json.Unmarshal(pair[0], &step.Name); err != nil {
		return Step{}, fmt.Errorf("%w: step name must be a string", ErrInvalidParams)
	}

	kwargs := map[string]any{}
	if len(pair) == 2 {
		if err := json.Unmarshal(pair[1], &kwargs); err != nil {
			return Step{}, fmt.Errorf("%w: %s: params must be an object", ErrInvalidParams, step.Name)
		}
	}

	step.P = DefaultProbability
	step.Params = make(map[string]float64, len(kwargs))
	for key, v := range kwargs {
		var f float64
		switch v := v.(type) {
		case float64:
			f = v
		case bool:
			if v {
				f = 1
			}
		default:
			return Step{}, fmt.Errorf("%w: %s.%s must be a number or boolean", ErrInvalidParams, step.Name, key)
		}

		if key == "p" {
			step.P = f
			continue
		}
		step.Params[key] = f
	}

	if step.P < 0 || step.P > 1 {
		return Step{}, fmt.Errorf("%w: %s: p=%v outside [0, 1]", ErrInvalidParams, step.Name, step.P)
	}

	return step, nil
}
