package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/cwbudde/wav"
)

// DecodeFloat decodes WAV bytes into interleaved float32 samples normalized
// to [-1, 1] and reports the source format.
func DecodeFloat(data []byte) ([]float32, Format, error) {
	if len(data) == 0 {
		return nil, Format{}, errors.New("empty WAV input")
	}

	r := bytes.NewReader(data)
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, Format{}, errors.New("invalid WAV file")
	}

	format := Format{
		NumChannels: int(dec.NumChans),
		BitDepth:    int(dec.BitDepth),
		SampleRate:  int(dec.SampleRate),
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, Format{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return buf.Data, format, nil
}

// ReadFloatFile reads and decodes the WAV file at path with DecodeFloat.
func ReadFloatFile(path string) ([]float32, Format, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- caller chooses the input path.
	if err != nil {
		return nil, Format{}, fmt.Errorf("read %s: %w", path, err)
	}

	samples, format, err := DecodeFloat(data)
	if err != nil {
		return nil, Format{}, fmt.Errorf("decode %s: %w", path, err)
	}

	return samples, format, nil
}

// DownmixMono averages interleaved channels into a single channel.
// Mono input is returned unchanged.
func DownmixMono(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}

	out := make([]float32, len(samples)/channels)
	for i := range out {
		var sum float32
		for c := range channels {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}

	return out
}
