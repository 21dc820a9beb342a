// Package testutil provides shared WAV fixture builders and assertions for
// package tests.
//
// Fixtures are written into a caller-provided directory (usually
// t.TempDir()) so tests never depend on committed audio files.
//
// Typical usage:
//
//	func TestChunker(t *testing.T) {
//	    in := testutil.WriteToneWAV(t, t.TempDir(), "speech.wav", testutil.MonoFormat, 24000)
//	    ...
//	}
package testutil

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-wavprep/internal/audio"
)

// MonoFormat is 16 kHz, mono, 16-bit PCM, the format most fixtures use.
var MonoFormat = audio.Format{NumChannels: 1, BitDepth: 16, SampleRate: 16000}

// ToneStream returns a stream of durationMS milliseconds holding a 440 Hz
// sine at half scale on every channel.
func ToneStream(f audio.Format, durationMS int) *audio.Stream {
	frames := int(int64(durationMS) * int64(f.SampleRate) / 1000)
	peak := audio.MaxAmplitude(f.BitDepth) / 2

	samples := make([]int, frames*f.NumChannels)
	for i := range frames {
		v := int(math.Round(peak * math.Sin(2*math.Pi*440*float64(i)/float64(f.SampleRate))))
		for c := range f.NumChannels {
			samples[i*f.NumChannels+c] = v
		}
	}

	return &audio.Stream{Format: f, Data: PackSamples(f, samples)}
}

// SilentStream returns durationMS milliseconds of digital silence.
func SilentStream(f audio.Format, durationMS int) *audio.Stream {
	frames := int(int64(durationMS) * int64(f.SampleRate) / 1000)

	return &audio.Stream{Format: f, Data: PackSamples(f, make([]int, frames*f.NumChannels))}
}

// PackSamples encodes signed samples as little-endian PCM in format f.
// 8-bit samples are stored unsigned as WAV requires.
func PackSamples(f audio.Format, samples []int) []byte {
	bps := f.BitDepth / 8
	out := make([]byte, len(samples)*bps)

	for i, v := range samples {
		b := out[i*bps : (i+1)*bps]
		switch bps {
		case 1:
			b[0] = byte(v + 128)
		case 2:
			binary.LittleEndian.PutUint16(b, uint16(int16(v)))
		case 3:
			b[0], b[1], b[2] = byte(v), byte(v>>8), byte(v>>16)
		case 4:
			binary.LittleEndian.PutUint32(b, uint32(int32(v)))
		}
	}

	return out
}

// WriteStreamWAV writes s to dir/name and returns the full path.
func WriteStreamWAV(tb testing.TB, dir, name string, s *audio.Stream) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		tb.Fatalf("create fixture dir: %v", err)
	}
	if err := audio.WriteStream(path, s); err != nil {
		tb.Fatalf("write fixture %s: %v", path, err)
	}

	return path
}

// WriteToneWAV writes a ToneStream fixture and returns its path.
func WriteToneWAV(tb testing.TB, dir, name string, f audio.Format, durationMS int) string {
	tb.Helper()

	return WriteStreamWAV(tb, dir, name, ToneStream(f, durationMS))
}

// WriteSilentWAV writes a SilentStream fixture and returns its path.
func WriteSilentWAV(tb testing.TB, dir, name string, f audio.Format, durationMS int) string {
	tb.Helper()

	return WriteStreamWAV(tb, dir, name, SilentStream(f, durationMS))
}
