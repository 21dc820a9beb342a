// Package dataset streams WAV files as float32 sequences and cuts them into
// batched, overlapping (x, y) training windows.
//
// Stages compose as iterators:
//
//	seqs := dataset.Load(files, dataset.WithShuffle(true)).All()
//	seqs = dataset.MapParallel(seqs, 4, pipeline.Apply)
//	for w, err := range dataset.CrossBatchSequence(dataset.Batch(seqs, 8), 1024, 64) {
//		...
//	}
package dataset

import (
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/example/go-wavprep/internal/audio"
)

// Loader yields the samples of a list of WAV files, one file per item.
type Loader struct {
	files      []string
	shuffle    bool
	sampleRate int

	mu  sync.Mutex
	rng *rand.Rand
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithShuffle reorders the files on every pass.
func WithShuffle(shuffle bool) LoaderOption {
	return func(l *Loader) { l.shuffle = shuffle }
}

// WithRand sets the source used for shuffling.
func WithRand(rng *rand.Rand) LoaderOption {
	return func(l *Loader) { l.rng = rng }
}

// WithSampleRate rejects files whose sample rate differs from rate.
func WithSampleRate(rate int) LoaderOption {
	return func(l *Loader) { l.sampleRate = rate }
}

// Load returns a Loader over files. Nothing is read until All is ranged over.
func Load(files []string, opts ...LoaderOption) *Loader {
	l := &Loader{files: slices.Clone(files)}
	for _, opt := range opts {
		opt(l)
	}

	if l.rng == nil {
		l.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return l
}

// Files returns the file list in its configured order.
func (l *Loader) Files() []string {
	return slices.Clone(l.files)
}

// All returns one pass over the files. Each file is decoded to mono float32
// in [-1, 1] when it is reached. The sequence can be ranged over again for
// another pass; with shuffling enabled each pass has a fresh order. A decode
// error is yielded once and ends the pass.
func (l *Loader) All() iter.Seq2[[]float32, error] {
	return func(yield func([]float32, error) bool) {
		for _, path := range l.passOrder() {
			samples, format, err := audio.ReadFloatFile(path)
			if err == nil && l.sampleRate > 0 && format.SampleRate != l.sampleRate {
				err = fmt.Errorf("%s: sample rate %d, want %d: %w", path, format.SampleRate, l.sampleRate, audio.ErrFormatMismatch)
			}
			if err != nil {
				yield(nil, err)
				return
			}

			slog.Debug("loaded sequence", "file", path, "format", format.String())

			if !yield(audio.DownmixMono(samples, format.NumChannels), nil) {
				return
			}
		}
	}
}

func (l *Loader) passOrder() []string {
	order := slices.Clone(l.files)
	if !l.shuffle {
		return order
	}

	l.mu.Lock()
	l.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	l.mu.Unlock()

	return order
}
