package augment

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
)

// Transform is one augmentation. Apply must not modify samples and returns
// a new slice.
type Transform interface {
	Apply(samples []float32, sampleRate int, rng *rand.Rand) []float32
}

// params resolves user values against a transform's defaults.
type params map[string]float64

func (p params) flag(key string) bool { return p[key] != 0 }

// rangeParam checks that lo <= hi and both lie within [min, max].
func (p params) rangeParam(loKey, hiKey string, lower, upper float64) (float64, float64, error) {
	lo, hi := p[loKey], p[hiKey]
	if lo > hi {
		return 0, 0, fmt.Errorf("%s=%v exceeds %s=%v", loKey, lo, hiKey, hi)
	}
	if lo < lower || hi > upper {
		return 0, 0, fmt.Errorf("[%s, %s] must lie within [%v, %v]", loKey, hiKey, lower, upper)
	}

	return lo, hi, nil
}

type entry struct {
	defaults params
	build    func(params) (Transform, error)
}

var registry = map[string]entry{
	"AddGaussianNoise": {
		defaults: params{"min_amplitude": 0.001, "max_amplitude": 0.015},
		build: func(p params) (Transform, error) {
			lo, hi, err := p.rangeParam("min_amplitude", "max_amplitude", 0, 1)
			if err != nil {
				return nil, err
			}
			return gaussianNoise{minAmp: float32(lo), maxAmp: float32(hi)}, nil
		},
	},
	"TimeStretch": {
		defaults: params{"min_rate": 0.8, "max_rate": 1.25, "leave_length_unchanged": 0},
		build: func(p params) (Transform, error) {
			lo, hi, err := p.rangeParam("min_rate", "max_rate", 0.1, 10)
			if err != nil {
				return nil, err
			}
			return timeStretch{minRate: float32(lo), maxRate: float32(hi), keepLength: p.flag("leave_length_unchanged")}, nil
		},
	},
	"PitchShift": {
		defaults: params{"min_semitones": -4, "max_semitones": 4},
		build: func(p params) (Transform, error) {
			lo, hi, err := p.rangeParam("min_semitones", "max_semitones", -24, 24)
			if err != nil {
				return nil, err
			}
			return pitchShift{minSemitones: float32(lo), maxSemitones: float32(hi)}, nil
		},
	},
	"Shift": {
		defaults: params{"min_fraction": -0.5, "max_fraction": 0.5, "rollover": 1},
		build: func(p params) (Transform, error) {
			lo, hi, err := p.rangeParam("min_fraction", "max_fraction", -1, 1)
			if err != nil {
				return nil, err
			}
			return shift{minFraction: lo, maxFraction: hi, rollover: p.flag("rollover")}, nil
		},
	},
	"Reverse": {
		defaults: params{},
		build: func(params) (Transform, error) {
			return reverse{}, nil
		},
	},
	"TanhDistortion": {
		defaults: params{"min_distortion": 0.01, "max_distortion": 0.7},
		build: func(p params) (Transform, error) {
			lo, hi, err := p.rangeParam("min_distortion", "max_distortion", 0, 1)
			if err != nil {
				return nil, err
			}
			return tanhDistortion{minDistortion: float32(lo), maxDistortion: float32(hi)}, nil
		},
	},
	"Gain": {
		defaults: params{"min_gain_db": -12, "max_gain_db": 12},
		build: func(p params) (Transform, error) {
			lo, hi, err := p.rangeParam("min_gain_db", "max_gain_db", -120, 120)
			if err != nil {
				return nil, err
			}
			return gain{minDB: float32(lo), maxDB: float32(hi)}, nil
		},
	},
}

// Names returns the registered transform names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

// New builds the named transform from user parameters, filling in defaults.
func New(name string, user map[string]float64) (Transform, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownTransform, name, Names())
	}

	p := maps.Clone(e.defaults)
	for key, v := range user {
		if _, known := e.defaults[key]; !known {
			return nil, fmt.Errorf("%w: %s has no parameter %q", ErrInvalidParams, name, key)
		}
		p[key] = v
	}

	t, err := e.build(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidParams, name, err)
	}

	return t, nil
}
