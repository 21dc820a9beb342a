package augment

import (
	"math"
	"slices"

	"github.com/chewxy/math32"
	"github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

// maxRatioDenominator bounds the rational approximation of a resampling
// ratio, which keeps the polyphase filter bank small.
const maxRatioDenominator = 256

// frameSize returns the overlap-add frame length for a sample rate: about
// 50 ms, even, and never below 64 samples.
func frameSize(sampleRate int) int {
	n := max(sampleRate/20, 64)

	return n &^ 1
}

// stretch changes the duration of x by 1/rate without changing its pitch,
// using waveform-similarity overlap-add (WSOLA). Inputs shorter than one
// frame are resampled instead.
func stretch(x []float32, rate float32, frame int) []float32 {
	n := len(x)
	if n == 0 || rate == 1 {
		return slices.Clone(x)
	}

	outLen := int(math.Round(float64(n) / float64(rate)))
	if n < frame {
		return resampleTo(x, outLen)
	}

	win, err := hann(frame)
	if err != nil {
		return resampleTo(x, outLen)
	}

	hop := frame / 2
	tolerance := frame / 8

	out := make([]float32, outLen+frame)
	norm := make([]float32, outLen+frame)

	natural := 0
	for outPos := 0; outPos < outLen; outPos += hop {
		pos := int(float32(outPos) * rate)
		if outPos > 0 {
			pos = bestMatch(x, natural, pos, tolerance, hop)
		}

		for j := range frame {
			idx := pos + j
			if idx >= n {
				break
			}
			out[outPos+j] += x[idx] * win[j]
			norm[outPos+j] += win[j]
		}

		natural = pos + hop
	}

	for i := range outLen {
		if norm[i] > 1e-6 {
			out[i] /= norm[i]
		}
	}

	return out[:outLen]
}

// bestMatch searches [nominal-tolerance, nominal+tolerance] for the frame
// start whose first length samples correlate best with x[natural:].
func bestMatch(x []float32, natural, nominal, tolerance, length int) int {
	n := len(x)
	if natural >= n {
		return min(nominal, n-1)
	}

	best, bestScore := min(nominal, n-1), math32.Inf(-1)
	for c := max(nominal-tolerance, 0); c <= nominal+tolerance && c < n; c++ {
		m := min(length, n-natural, n-c)

		var score float32
		for j := range m {
			score += x[natural+j] * x[c+j]
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}

	return best
}

// hann returns a periodic Hann window of n samples.
func hann(n int) ([]float32, error) {
	coeffs, err := window.Hann(n, window.WithPeriodic())
	if err != nil {
		return nil, err
	}

	w := make([]float32, n)
	for i, c := range coeffs {
		w[i] = float32(c)
	}

	return w, nil
}

// resampleTo converts x to exactly n samples with a polyphase anti-aliasing
// filter. The filter delay is removed so the output stays time-aligned
// with x.
func resampleTo(x []float32, n int) []float32 {
	out := make([]float32, n)
	if n == 0 || len(x) == 0 {
		return out
	}
	if len(x) == 1 || n == 1 {
		for i := range out {
			out[i] = x[0]
		}
		return out
	}
	if n == len(x) {
		copy(out, x)
		return out
	}

	r, err := resample.NewForRates(float64(len(x)), float64(n), resample.WithMaxDenominator(maxRatioDenominator))
	if err != nil {
		return fitLength(slices.Clone(x), n)
	}

	up, down := r.Ratio()
	center := float64(len(r.Prototype())-1) / 2
	delay := int(math.Round(center / float64(down)))

	// Trailing zeros flush the filter so the last delay outputs exist.
	pad := (delay+2)*down/up + 2
	in := make([]float64, len(x)+pad)
	for i, v := range x {
		in[i] = float64(v)
	}

	y := r.Process(in)
	if delay < len(y) {
		y = y[delay:]
	} else {
		y = nil
	}

	for i := range min(n, len(y)) {
		out[i] = float32(y[i])
	}

	return out
}

// fitLength zero-pads or truncates x to n samples.
func fitLength(x []float32, n int) []float32 {
	if len(x) >= n {
		return x[:n]
	}

	return append(x, make([]float32, n-len(x))...)
}
