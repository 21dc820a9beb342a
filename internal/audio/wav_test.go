package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// makeWAV builds a minimal valid WAV file from parameters for testing.
// Every sample holds value.
func makeWAV(sampleRate uint32, numChannels uint16, bitDepth uint16, numFrames int, value int16) []byte {
	blockAlign := numChannels * bitDepth / 8
	byteRate := sampleRate * uint32(blockAlign)
	dataSize := uint32(numFrames) * uint32(blockAlign)
	riffSize := 4 + (8 + 16) + (8 + dataSize)

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, riffSize)
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16)) // chunk size
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))  // PCM
	_ = binary.Write(buf, binary.LittleEndian, numChannels)
	_ = binary.Write(buf, binary.LittleEndian, sampleRate)
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, bitDepth)

	// data chunk
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	for range numFrames * int(numChannels) {
		_ = binary.Write(buf, binary.LittleEndian, value)
	}

	return buf.Bytes()
}

func rampStream(frames int) *Stream {
	data := make([]byte, frames*2)
	for i := range frames {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(i-frames/2)))
	}

	return &Stream{Format: Format{NumChannels: 1, BitDepth: 16, SampleRate: 1000}, Data: data}
}

// --- WriteWAVHeader ---

func TestWriteWAVHeader_Fields(t *testing.T) {
	var buf bytes.Buffer

	f := Format{NumChannels: 2, BitDepth: 24, SampleRate: 48000}

	n, err := WriteWAVHeader(&buf, f, 600)
	if err != nil {
		t.Fatalf("WriteWAVHeader error: %v", err)
	}

	if n != HeaderSize {
		t.Fatalf("wrote %d bytes; want %d", n, HeaderSize)
	}

	hdr := buf.Bytes()
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" || string(hdr[36:40]) != "data" {
		t.Fatalf("bad chunk markers: %q", hdr)
	}

	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", binary.LittleEndian.Uint32(hdr[4:8]), 636},
		{"channels", uint32(binary.LittleEndian.Uint16(hdr[22:24])), 2},
		{"sample rate", binary.LittleEndian.Uint32(hdr[24:28]), 48000},
		{"byte rate", binary.LittleEndian.Uint32(hdr[28:32]), 48000 * 6},
		{"block align", uint32(binary.LittleEndian.Uint16(hdr[32:34])), 6},
		{"bits per sample", uint32(binary.LittleEndian.Uint16(hdr[34:36])), 24},
		{"data size", binary.LittleEndian.Uint32(hdr[40:44]), 600},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d; want %d", c.name, c.got, c.want)
		}
	}
}

func TestWriteWAVHeader_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		f    Format
	}{
		{"zero channels", Format{NumChannels: 0, BitDepth: 16, SampleRate: 16000}},
		{"odd bit depth", Format{NumChannels: 1, BitDepth: 12, SampleRate: 16000}},
		{"zero rate", Format{NumChannels: 1, BitDepth: 16, SampleRate: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := WriteWAVHeader(&bytes.Buffer{}, tt.f, 0); err == nil {
				t.Errorf("WriteWAVHeader(%+v) = nil; want error", tt.f)
			}
		})
	}
}

func TestFormat_CheckMatch(t *testing.T) {
	base := Format{NumChannels: 1, BitDepth: 16, SampleRate: 16000}

	if err := base.CheckMatch(base); err != nil {
		t.Fatalf("CheckMatch(same) = %v; want nil", err)
	}

	other := base
	other.SampleRate = 44100
	if err := base.CheckMatch(other); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("CheckMatch(rate) = %v; want ErrFormatMismatch", err)
	}
}

// --- DecodeStream / Encode ---

func TestDecodeStream(t *testing.T) {
	t.Run("reads format and raw payload", func(t *testing.T) {
		data := makeWAV(16000, 1, 16, 100, 7)

		s, err := DecodeStream(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := Format{NumChannels: 1, BitDepth: 16, SampleRate: 16000}
		if s.Format != want {
			t.Errorf("format = %+v; want %+v", s.Format, want)
		}
		if s.Frames() != 100 {
			t.Errorf("frames = %d; want 100", s.Frames())
		}
		if !bytes.Equal(s.Data, data[HeaderSize:]) {
			t.Error("payload differs from source data chunk")
		}
	})

	t.Run("accepts zero-length data chunk", func(t *testing.T) {
		s, err := DecodeStream(bytes.NewReader(makeWAV(16000, 1, 16, 0, 0)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Frames() != 0 || s.DurationMS() != 0 {
			t.Errorf("frames = %d, duration = %d; want 0, 0", s.Frames(), s.DurationMS())
		}
	})

	t.Run("rejects invalid WAV data", func(t *testing.T) {
		if _, err := DecodeStream(bytes.NewReader([]byte("not a wav file at all"))); err == nil {
			t.Fatal("expected error for invalid WAV")
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		if _, err := DecodeStream(bytes.NewReader(nil)); err == nil {
			t.Fatal("expected error for empty input")
		}
	})
}

func TestStream_EncodeRoundTrip(t *testing.T) {
	src := rampStream(250)

	encoded, err := src.EncodeBytes()
	if err != nil {
		t.Fatalf("EncodeBytes error: %v", err)
	}

	got, err := DecodeStream(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("DecodeStream error: %v", err)
	}

	if got.Format != src.Format {
		t.Errorf("format = %+v; want %+v", got.Format, src.Format)
	}
	if !bytes.Equal(got.Data, src.Data) {
		t.Error("round-trip payload differs")
	}
}

func TestReadWriteStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.wav")
	src := rampStream(64)

	if err := WriteStream(path, src); err != nil {
		t.Fatalf("WriteStream error: %v", err)
	}

	got, err := ReadStream(path)
	if err != nil {
		t.Fatalf("ReadStream error: %v", err)
	}
	if !bytes.Equal(got.Data, src.Data) {
		t.Error("file round-trip payload differs")
	}
}

func TestReadStream_MissingFile(t *testing.T) {
	_, err := ReadStream(filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadStream(missing) = %v; want os.ErrNotExist", err)
	}
}

// --- Stream geometry ---

func TestStream_DurationAndSlice(t *testing.T) {
	// 1000 Hz: one frame per millisecond.
	s := rampStream(2500)

	if got := s.DurationMS(); got != 2500 {
		t.Fatalf("DurationMS = %d; want 2500", got)
	}

	sub := s.SliceMS(1000, 1800)
	if sub.Frames() != 800 {
		t.Errorf("SliceMS frames = %d; want 800", sub.Frames())
	}
	if !bytes.Equal(sub.Data, s.Data[2000:3600]) {
		t.Error("SliceMS payload does not match source range")
	}

	clamped := s.SliceMS(2000, 9000)
	if clamped.Frames() != 500 {
		t.Errorf("clamped SliceMS frames = %d; want 500", clamped.Frames())
	}

	if empty := s.SliceMS(3000, 4000); empty.Frames() != 0 {
		t.Errorf("out-of-range SliceMS frames = %d; want 0", empty.Frames())
	}
}

func TestStream_Samples(t *testing.T) {
	tests := []struct {
		name string
		s    Stream
		want []int
	}{
		{
			name: "8-bit unsigned re-centred",
			s:    Stream{Format: Format{NumChannels: 1, BitDepth: 8, SampleRate: 8000}, Data: []byte{0, 128, 255}},
			want: []int{-128, 0, 127},
		},
		{
			name: "16-bit signed",
			s:    Stream{Format: Format{NumChannels: 1, BitDepth: 16, SampleRate: 8000}, Data: []byte{0xFF, 0x7F, 0x00, 0x80}},
			want: []int{32767, -32768},
		},
		{
			name: "24-bit sign extension",
			s:    Stream{Format: Format{NumChannels: 1, BitDepth: 24, SampleRate: 8000}, Data: []byte{0xFF, 0xFF, 0xFF, 0x01, 0x00, 0x00}},
			want: []int{-1, 1},
		},
		{
			name: "32-bit signed",
			s:    Stream{Format: Format{NumChannels: 1, BitDepth: 32, SampleRate: 8000}, Data: []byte{0xFE, 0xFF, 0xFF, 0xFF}},
			want: []int{-2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.s.Samples()
			if len(got) != len(tt.want) {
				t.Fatalf("Samples() len = %d; want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Samples()[%d] = %d; want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// --- Float decode / encode ---

func TestDecodeFloat(t *testing.T) {
	t.Run("decodes valid 16 kHz stereo 16-bit WAV", func(t *testing.T) {
		samples, f, err := DecodeFloat(makeWAV(16000, 2, 16, 100, 0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(samples) != 200 {
			t.Errorf("got %d samples, want 200", len(samples))
		}
		if f.NumChannels != 2 || f.SampleRate != 16000 {
			t.Errorf("format = %+v", f)
		}
	})

	t.Run("rejects invalid WAV data", func(t *testing.T) {
		if _, _, err := DecodeFloat([]byte("not a wav file")); err == nil {
			t.Fatal("expected error for invalid WAV")
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		if _, _, err := DecodeFloat(nil); err == nil {
			t.Fatal("expected error for nil input")
		}
	})
}

func TestEncodeFloat_RoundTrip(t *testing.T) {
	f := Format{NumChannels: 1, BitDepth: 16, SampleRate: 16000}

	original := make([]float32, 400)
	for i := range original {
		original[i] = float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	encoded, err := EncodeFloat(original, f)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	decoded, gotFormat, err := DecodeFloat(encoded)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if gotFormat != f {
		t.Errorf("format = %+v; want %+v", gotFormat, f)
	}
	if len(decoded) != len(original) {
		t.Fatalf("roundtrip: got %d samples, want %d", len(decoded), len(original))
	}

	// 16-bit quantization introduces error up to ~1/32768.
	const tolerance = 1.0 / 32768.0 * 2
	for i, want := range original {
		if math.Abs(float64(decoded[i]-want)) > tolerance {
			t.Errorf("sample[%d] = %f, want %f (tolerance %f)", i, decoded[i], want, tolerance)
		}
	}
}

func TestEncodeFloat_InvalidFormat(t *testing.T) {
	if _, err := EncodeFloat([]float32{0}, Format{NumChannels: 1, BitDepth: 16}); err == nil {
		t.Error("EncodeFloat(rate=0) = nil; want error")
	}
}

func TestDownmixMono(t *testing.T) {
	got := DownmixMono([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	want := []float32{0.5, 0.5, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DownmixMono()[%d] = %v; want %v", i, got[i], want[i])
		}
	}

	mono := []float32{0.1, 0.2}
	if got := DownmixMono(mono, 1); &got[0] != &mono[0] {
		t.Error("mono input should be returned unchanged")
	}
}
