package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Stream is an in-memory PCM WAV payload together with its format.
// Data holds raw little-endian interleaved frames exactly as stored in the
// source file's data chunk.
type Stream struct {
	Format Format
	Data   []byte
}

// ReadStream opens, fully reads and closes the WAV file at path.
func ReadStream(path string) (*Stream, error) {
	f, err := os.Open(path) // #nosec G304 -- caller chooses the input path.
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s, err := DecodeStream(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return s, nil
}

// DecodeStream reads the header and the raw data chunk of a PCM WAV.
func DecodeStream(r io.ReadSeeker) (*Stream, error) {
	dec := wav.NewDecoder(r)
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("locating PCM data: %w", err)
	}
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("reading WAV header: %w", err)
	}
	if dec.PCMChunk == nil {
		return nil, errors.New("invalid WAV file: no data chunk")
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("unsupported WAV audio format %d (want PCM)", dec.WavAudioFormat)
	}

	format := Format{
		NumChannels: int(dec.NumChans),
		BitDepth:    int(dec.BitDepth),
		SampleRate:  int(dec.SampleRate),
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid WAV file: %w", err)
	}

	data, err := io.ReadAll(dec.PCMChunk)
	if err != nil {
		return nil, fmt.Errorf("reading PCM data: %w", err)
	}

	// A truncated trailing frame cannot be addressed; drop it.
	frameSize := format.FrameSize()
	data = data[:len(data)-len(data)%frameSize]

	return &Stream{Format: format, Data: data}, nil
}

// WriteStream writes s as a WAV file at path, replacing any existing file.
func WriteStream(path string, s *Stream) error {
	data, err := s.EncodeBytes()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- audio output is not secret.
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// Encode writes s as a complete WAV file to w.
func (s *Stream) Encode(w io.Writer) error {
	if _, err := WriteWAVHeader(w, s.Format, len(s.Data)); err != nil {
		return fmt.Errorf("writing WAV header: %w", err)
	}
	if _, err := w.Write(s.Data); err != nil {
		return fmt.Errorf("writing PCM: %w", err)
	}

	return nil
}

// EncodeBytes returns s encoded as a WAV byte slice.
func (s *Stream) EncodeBytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(s.Data))

	if err := s.Encode(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Frames returns the number of complete frames in the stream.
func (s *Stream) Frames() int {
	fs := s.Format.FrameSize()
	if fs == 0 {
		return 0
	}

	return len(s.Data) / fs
}

// DurationMS returns the stream length in milliseconds, rounded to the
// nearest millisecond.
func (s *Stream) DurationMS() int {
	if s.Format.SampleRate == 0 {
		return 0
	}

	return int(math.Round(1000 * float64(s.Frames()) / float64(s.Format.SampleRate)))
}

// FrameAtMS converts a millisecond position into a frame index clamped to
// [0, Frames()].
func (s *Stream) FrameAtMS(ms int) int {
	if ms <= 0 {
		return 0
	}

	frame := int(int64(ms) * int64(s.Format.SampleRate) / 1000)

	return min(frame, s.Frames())
}

// SliceMS returns the sub-stream covering [startMS, endMS). The result
// shares s's backing array.
func (s *Stream) SliceMS(startMS, endMS int) *Stream {
	start := s.FrameAtMS(startMS)
	end := max(s.FrameAtMS(endMS), start)

	fs := s.Format.FrameSize()

	return &Stream{Format: s.Format, Data: s.Data[start*fs : end*fs]}
}

// Samples decodes the payload into signed interleaved sample values.
// Unsigned 8-bit PCM is re-centred around zero.
func (s *Stream) Samples() []int {
	bps := s.Format.BitDepth / 8
	if bps == 0 {
		return nil
	}

	out := make([]int, len(s.Data)/bps)
	for i := range out {
		b := s.Data[i*bps : (i+1)*bps]
		switch bps {
		case 1:
			out[i] = int(b[0]) - 128
		case 2:
			out[i] = int(int16(binary.LittleEndian.Uint16(b)))
		case 3:
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF
			}
			out[i] = int(v)
		case 4:
			out[i] = int(int32(binary.LittleEndian.Uint32(b)))
		}
	}

	return out
}
