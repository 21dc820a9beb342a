package augment

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/chewxy/math32"
)

func uniform(rng *rand.Rand, lo, hi float32) float32 {
	if hi <= lo {
		return lo
	}

	return lo + rng.Float32()*(hi-lo)
}

type gaussianNoise struct {
	minAmp, maxAmp float32
}

func (t gaussianNoise) Apply(samples []float32, _ int, rng *rand.Rand) []float32 {
	amp := uniform(rng, t.minAmp, t.maxAmp)

	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s + amp*float32(rng.NormFloat64())
	}

	return out
}

type timeStretch struct {
	minRate, maxRate float32
	keepLength       bool
}

func (t timeStretch) Apply(samples []float32, sampleRate int, rng *rand.Rand) []float32 {
	rate := uniform(rng, t.minRate, t.maxRate)
	out := stretch(samples, rate, frameSize(sampleRate))

	if t.keepLength {
		return fitLength(out, len(samples))
	}

	return out
}

type pitchShift struct {
	minSemitones, maxSemitones float32
}

// Apply stretches by the pitch ratio and resamples back to the input length,
// which scales every frequency by that ratio.
func (t pitchShift) Apply(samples []float32, sampleRate int, rng *rand.Rand) []float32 {
	semitones := uniform(rng, t.minSemitones, t.maxSemitones)
	ratio := math32.Pow(2, semitones/12)

	stretched := stretch(samples, 1/ratio, frameSize(sampleRate))

	return resampleTo(stretched, len(samples))
}

type shift struct {
	minFraction, maxFraction float64
	rollover                 bool
}

func (t shift) Apply(samples []float32, _ int, rng *rand.Rand) []float32 {
	n := len(samples)
	out := make([]float32, n)
	if n == 0 {
		return out
	}

	frac := t.minFraction + rng.Float64()*(t.maxFraction-t.minFraction)
	k := int(math.Round(frac * float64(n)))

	for i, s := range samples {
		j := i + k
		if t.rollover {
			j = ((j % n) + n) % n
		} else if j < 0 || j >= n {
			continue
		}
		out[j] = s
	}

	return out
}

type reverse struct{}

func (reverse) Apply(samples []float32, _ int, _ *rand.Rand) []float32 {
	out := slices.Clone(samples)
	slices.Reverse(out)

	return out
}

type tanhDistortion struct {
	minDistortion, maxDistortion float32
}

// Apply drives the signal into tanh with a gain chosen so that the given
// share of samples saturates, then restores the input RMS.
func (t tanhDistortion) Apply(samples []float32, _ int, rng *rand.Rand) []float32 {
	out := make([]float32, len(samples))
	if len(samples) == 0 {
		return out
	}

	distortion := uniform(rng, t.minDistortion, t.maxDistortion)
	threshold := percentileAbs(samples, 100-99*distortion)
	g := 0.5 / (threshold + 1e-6)

	for i, s := range samples {
		out[i] = math32.Tanh(g * s)
	}

	if in := rms(samples); in > 0 {
		if o := rms(out); o > 0 {
			scale := in / o
			for i := range out {
				out[i] *= scale
			}
		}
	}

	return out
}

type gain struct {
	minDB, maxDB float32
}

func (t gain) Apply(samples []float32, _ int, rng *rand.Rand) []float32 {
	factor := math32.Pow(10, uniform(rng, t.minDB, t.maxDB)/20)

	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s * factor
	}

	return out
}

func rms(samples []float32) float32 {
	var sum float32
	for _, s := range samples {
		sum += s * s
	}

	return math32.Sqrt(sum / float32(len(samples)))
}

// percentileAbs returns the q-th percentile (0..100) of |samples| with
// linear interpolation between order statistics.
func percentileAbs(samples []float32, q float32) float32 {
	abs := make([]float32, len(samples))
	for i, s := range samples {
		abs[i] = math32.Abs(s)
	}
	slices.Sort(abs)

	pos := q / 100 * float32(len(abs)-1)
	lo := int(math32.Floor(pos))
	if lo >= len(abs)-1 {
		return abs[len(abs)-1]
	}
	frac := pos - float32(lo)

	return abs[lo] + frac*(abs[lo+1]-abs[lo])
}
