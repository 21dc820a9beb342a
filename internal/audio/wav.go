package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the size of the canonical PCM WAV header written by WriteWAVHeader.
const HeaderSize = 44

// ErrFormatMismatch is returned when two audio formats that must agree do not.
var ErrFormatMismatch = errors.New("WAV format mismatch")

// Format holds the PCM properties that stay fixed for the lifetime of a stream.
type Format struct {
	NumChannels int
	BitDepth    int
	SampleRate  int
}

// FrameSize returns the number of bytes per frame (one sample for each channel).
func (f Format) FrameSize() int {
	return f.NumChannels * f.BitDepth / 8
}

// ByteRate returns the number of payload bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.FrameSize()
}

// Validate reports whether f describes an integer PCM layout this package can handle.
func (f Format) Validate() error {
	if f.NumChannels < 1 {
		return fmt.Errorf("invalid channel count: %d", f.NumChannels)
	}
	switch f.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth: %d", f.BitDepth)
	}
	if f.SampleRate < 1 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}

	return nil
}

// CheckMatch returns ErrFormatMismatch when other differs from f in any property.
func (f Format) CheckMatch(other Format) error {
	if f.NumChannels != other.NumChannels {
		return fmt.Errorf("%w: channels %d, want %d", ErrFormatMismatch, other.NumChannels, f.NumChannels)
	}
	if f.BitDepth != other.BitDepth {
		return fmt.Errorf("%w: bit depth %d, want %d", ErrFormatMismatch, other.BitDepth, f.BitDepth)
	}
	if f.SampleRate != other.SampleRate {
		return fmt.Errorf("%w: sample rate %d, want %d", ErrFormatMismatch, other.SampleRate, f.SampleRate)
	}

	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %d-bit", f.SampleRate, f.NumChannels, f.BitDepth)
}

// WriteWAVHeader writes a 44-byte PCM WAV header for a data chunk of
// dataSize bytes in format f.
func WriteWAVHeader(w io.Writer, f Format, dataSize int) (int, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	if dataSize < 0 || int64(dataSize) > 0xFFFFFFFF-36 {
		return 0, fmt.Errorf("invalid data size: %d", dataSize)
	}

	var hdr [HeaderSize]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataSize))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(f.NumChannels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(f.ByteRate()))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(f.FrameSize()))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(f.BitDepth))
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataSize))

	return w.Write(hdr[:])
}
