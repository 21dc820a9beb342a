package testutil

import (
	"encoding/binary"
	"errors"
	"os"
	"testing"

	"github.com/example/go-wavprep/internal/audio"
)

// AssertValidWAV checks that data is a PCM WAV file with the expected
// format: RIFF header, fmt chunk fields and a data chunk.
func AssertValidWAV(tb testing.TB, data []byte, want audio.Format) {
	tb.Helper()

	if len(data) < audio.HeaderSize {
		tb.Fatalf("WAV data too short: %d bytes", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		tb.Fatalf("WAV: missing RIFF header (got %q)", string(data[0:4]))
	}

	if string(data[8:12]) != "WAVE" {
		tb.Fatalf("WAV: missing WAVE marker (got %q)", string(data[8:12]))
	}

	if string(data[12:16]) != "fmt " {
		tb.Fatalf("WAV: missing fmt chunk (got %q)", string(data[12:16]))
	}

	// fmt chunk fields (little-endian).
	audioFmt := binary.LittleEndian.Uint16(data[20:22])
	if audioFmt != 1 {
		tb.Fatalf("WAV: expected PCM format (1), got %d", audioFmt)
	}

	channels := binary.LittleEndian.Uint16(data[22:24])
	if int(channels) != want.NumChannels {
		tb.Fatalf("WAV: expected %d channels, got %d", want.NumChannels, channels)
	}

	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	if int(sampleRate) != want.SampleRate {
		tb.Fatalf("WAV: expected sample rate %d, got %d", want.SampleRate, sampleRate)
	}

	bitDepth := binary.LittleEndian.Uint16(data[34:36])
	if int(bitDepth) != want.BitDepth {
		tb.Fatalf("WAV: expected %d-bit depth, got %d", want.BitDepth, bitDepth)
	}

	if _, err := findDataChunkSize(data); err != nil {
		tb.Fatalf("WAV: %v", err)
	}
}

// WAVFrames returns the number of frames in the WAV file at path, failing
// the test if the file is missing or malformed.
func WAVFrames(tb testing.TB, path string, f audio.Format) int {
	tb.Helper()

	data, err := os.ReadFile(path) // #nosec G304 -- test fixture path.
	if err != nil {
		tb.Fatalf("read %s: %v", path, err)
	}

	AssertValidWAV(tb, data, f)

	size, err := findDataChunkSize(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}

	return int(size) / f.FrameSize()
}

// findDataChunkSize walks the WAV chunk list to locate the "data" sub-chunk
// and returns its size in bytes.
func findDataChunkSize(data []byte) (uint32, error) {
	// Start after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])

		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		if id == "data" {
			return size, nil
		}

		offset += 8 + int(size)
		// Pad to even boundary.
		if size%2 != 0 {
			offset++
		}
	}

	return 0, errors.New("data chunk not found in WAV")
}
