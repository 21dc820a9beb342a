// Package chunker splits a WAV recording into fixed-length, optionally
// overlapping chunks and drops the ones that are mostly silence.
package chunker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/example/go-wavprep/internal/audio"
	"github.com/example/go-wavprep/internal/storage"
)

const (
	DefaultChunkLengthMS = 8000
	DefaultOverlapMS     = 0
)

// Options controls how an input is chunked.
type Options struct {
	ChunkLengthMS   int
	OverlapMS       int
	SilenceThreshDB float64

	// KeepBoundary exports the final window that reaches the end of the
	// audio instead of dropping it.
	KeepBoundary bool
}

// DefaultOptions returns 8 s chunks, no overlap and a -64 dBFS silence threshold.
func DefaultOptions() Options {
	return Options{
		ChunkLengthMS:   DefaultChunkLengthMS,
		OverlapMS:       DefaultOverlapMS,
		SilenceThreshDB: audio.DefaultSilenceThreshDB,
	}
}

// Summary reports what one Run did.
type Summary struct {
	Input  string
	Output string

	// Attempted counts the windows tested for silence.
	Attempted int
	Silent    int
	Saved     int
	// Dropped counts boundary windows that were not exported.
	Dropped int
}

// Processed returns every window visited, including the dropped boundary.
func (s Summary) Processed() int {
	return s.Attempted + s.Dropped
}

func (s Summary) String() string {
	return fmt.Sprintf("%d chunks processed, %d were silent, %d saved.", s.Processed(), s.Silent, s.Saved)
}

// BaseName returns the file name of path without a trailing .wav extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".wav") {
		name = strings.TrimSuffix(name, ext)
	}

	return name
}

// ChunkName returns the export name of the n-th chunk of base.
func ChunkName(base string, n int) string {
	return fmt.Sprintf("%s_chunk_%d.wav", base, n)
}

// Run chunks the WAV file at inputPath and writes every non-silent chunk to
// sink. Progress lines are written to progress, which may be nil.
func Run(ctx context.Context, opts Options, inputPath string, sink storage.Sink, progress io.Writer) (Summary, error) {
	if progress == nil {
		progress = io.Discard
	}

	summary := Summary{Input: inputPath, Output: sink.Location()}

	// Validate the window before touching the input.
	if _, err := NewPlan(0, opts.ChunkLengthMS, opts.OverlapMS); err != nil {
		return summary, err
	}

	stream, err := audio.ReadStream(inputPath)
	if err != nil {
		return summary, fmt.Errorf("load input: %w", err)
	}

	plan, err := NewPlan(stream.DurationMS(), opts.ChunkLengthMS, opts.OverlapMS)
	if err != nil {
		return summary, err
	}

	slog.Debug("chunk plan",
		"input", inputPath,
		"format", stream.Format.String(),
		"duration_ms", stream.DurationMS(),
		"windows", len(plan.Windows),
		"boundary", plan.Boundary != nil,
	)

	base := BaseName(inputPath)
	minSilenceMS := opts.ChunkLengthMS / 2

	windows := plan.Windows
	if opts.KeepBoundary && plan.Boundary != nil {
		windows = append(windows[:len(windows):len(windows)], *plan.Boundary)
	} else {
		summary.Dropped = plan.Dropped()
	}

	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("chunking cancelled: %w", err)
		}

		summary.Attempted++
		chunk := stream.SliceMS(w.StartMS, w.EndMS)

		if audio.IsSilent(chunk, minSilenceMS, opts.SilenceThreshDB) {
			summary.Silent++
			slog.Debug("silent chunk omitted", "chunk", w.Index, "start_ms", w.StartMS, "end_ms", w.EndMS)
			fmt.Fprintf(progress, "Chunk %d is silent, omitting it.\n", w.Index)
			continue
		}

		fmt.Fprintf(progress, "Processing chunk %d. Start = %d end = %d\n", w.Index, w.StartMS, w.EndMS)

		data, err := chunk.EncodeBytes()
		if err != nil {
			return summary, fmt.Errorf("encode chunk %d: %w", w.Index, err)
		}

		location, err := sink.Put(ctx, ChunkName(base, w.Index), data)
		if err != nil {
			return summary, fmt.Errorf("export chunk %d: %w", w.Index, err)
		}

		summary.Saved++
		slog.Debug("chunk exported", "chunk", w.Index, "location", location)
	}

	fmt.Fprintf(progress, "Finished chunking %s.\n", inputPath)
	fmt.Fprintln(progress, summary.String())
	fmt.Fprintf(progress, "Saved %d chunks to %s.\n", summary.Saved, summary.Output)

	return summary, nil
}
