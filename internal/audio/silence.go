package audio

import "math"

// DefaultSilenceThreshDB is the level, relative to full scale, at or below
// which a window is treated as silence.
const DefaultSilenceThreshDB = -64.0

// Range is a half-open millisecond interval [StartMS, EndMS).
type Range struct {
	StartMS int
	EndMS   int
}

// DBToRatio converts a level in dB to a linear amplitude ratio.
func DBToRatio(db float64) float64 {
	return math.Pow(10, db/20)
}

// MaxAmplitude returns the largest representable magnitude for a signed
// sample of the given bit depth.
func MaxAmplitude(bitDepth int) float64 {
	return math.Exp2(float64(bitDepth)) / 2
}

// RMS returns the root-mean-square of samples, or 0 for an empty slice.
func RMS(samples []int) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, v := range samples {
		f := float64(v)
		sum += f * f
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// DetectSilence returns the merged millisecond ranges of s in which every
// minSilenceMS window, stepped by 1 ms, has an RMS at or below threshDB
// relative to full scale. Streams shorter than minSilenceMS have no silent
// ranges.
func DetectSilence(s *Stream, minSilenceMS int, threshDB float64) []Range {
	var ranges []Range

	scanSilence(s, minSilenceMS, threshDB, func(start int) bool {
		if n := len(ranges); n > 0 && ranges[n-1].EndMS-minSilenceMS+1 == start {
			ranges[n-1].EndMS = start + minSilenceMS
			return true
		}
		ranges = append(ranges, Range{StartMS: start, EndMS: start + minSilenceMS})
		return true
	})

	return ranges
}

// IsSilent reports whether s contains at least one silent window of
// minSilenceMS as defined by DetectSilence.
func IsSilent(s *Stream, minSilenceMS int, threshDB float64) bool {
	found := false

	scanSilence(s, minSilenceMS, threshDB, func(int) bool {
		found = true
		return false
	})

	return found
}

// scanSilence calls hit with the start of every silent window in ascending
// order until hit returns false.
func scanSilence(s *Stream, minSilenceMS int, threshDB float64, hit func(startMS int) bool) {
	if minSilenceMS < 0 {
		minSilenceMS = 0
	}

	segLen := s.DurationMS()
	if segLen < minSilenceMS {
		return
	}

	thresh := DBToRatio(threshDB) * MaxAmplitude(s.Format.BitDepth)
	channels := s.Format.NumChannels

	// prefix[f] is the sum of squares of all samples in frames [0, f).
	samples := s.Samples()
	frames := s.Frames()
	prefix := make([]float64, frames+1)
	for f := range frames {
		var sum float64
		for c := range channels {
			v := float64(samples[f*channels+c])
			sum += v * v
		}
		prefix[f+1] = prefix[f] + sum
	}

	for start := 0; start <= segLen-minSilenceMS; start++ {
		from := s.FrameAtMS(start)
		to := s.FrameAtMS(start + minSilenceMS)

		rms := 0.0
		if n := (to - from) * channels; n > 0 {
			rms = math.Sqrt((prefix[to] - prefix[from]) / float64(n))
		}

		if rms <= thresh && !hit(start) {
			return
		}
	}
}
