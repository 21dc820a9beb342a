// Package concat joins the WAV files of a directory tree into one file.
//
// The output takes its format from the first input file and appends the raw
// PCM payload of every file in order. Inputs are not resampled or converted;
// without Options.Strict a directory mixing formats produces output whose
// later sections are misinterpreted.
package concat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/example/go-wavprep/internal/audio"
	"github.com/example/go-wavprep/internal/storage"
)

// ErrNoInputFiles is returned when the input directory holds no WAV files.
var ErrNoInputFiles = errors.New("no .wav files found")

const wavPattern = "*.wav"

// Options controls ordering and validation.
type Options struct {
	Shuffle bool
	// Rand drives the shuffle. Nil uses the global source.
	Rand *rand.Rand
	// Strict fails with audio.ErrFormatMismatch when an input's format
	// differs from the first file's.
	Strict bool
}

// Result describes a finished concatenation.
type Result struct {
	Files    []string
	InputDir string
	Output   string
	Format   audio.Format
	Frames   int
}

func (r Result) String() string {
	return fmt.Sprintf("Finished concatenating %d files from %s into %s", len(r.Files), r.InputDir, r.Output)
}

// FindWAVFiles returns every file below dir whose name matches *.wav, in
// lexical walk order.
func FindWAVFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(wavPattern, d.Name()); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	return files, nil
}

// Concatenate joins the WAV files found below inputDir and stores the result
// in sink under name.
func Concatenate(ctx context.Context, inputDir string, sink storage.Sink, name string, opts Options) (Result, error) {
	res := Result{InputDir: inputDir}

	files, err := FindWAVFiles(inputDir)
	if err != nil {
		return res, err
	}
	if len(files) == 0 {
		return res, fmt.Errorf("%w in %s", ErrNoInputFiles, inputDir)
	}

	if opts.Shuffle {
		shuffle := rand.Shuffle
		if opts.Rand != nil {
			shuffle = opts.Rand.Shuffle
		}
		shuffle(len(files), func(i, j int) { files[i], files[j] = files[j], files[i] })
	}

	data, format, err := join(ctx, files, opts.Strict)
	if err != nil {
		return res, err
	}

	location, err := sink.Put(ctx, name, data)
	if err != nil {
		return res, fmt.Errorf("write output: %w", err)
	}

	res.Files = files
	res.Output = location
	res.Format = format
	res.Frames = (len(data) - audio.HeaderSize) / format.FrameSize()

	return res, nil
}

// join reads files one at a time and returns a complete WAV image holding
// their payloads back to back.
func join(ctx context.Context, files []string, strict bool) ([]byte, audio.Format, error) {
	var (
		format audio.Format
		buf    bytes.Buffer
	)

	// Header space; filled in once the payload size is known.
	buf.Write(make([]byte, audio.HeaderSize))

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, format, fmt.Errorf("concatenation cancelled: %w", err)
		}

		s, err := audio.ReadStream(path)
		if err != nil {
			return nil, format, err
		}

		if i == 0 {
			format = s.Format
		} else if err := format.CheckMatch(s.Format); err != nil {
			if strict {
				return nil, format, fmt.Errorf("%s: %w", path, err)
			}
			slog.Warn("input format differs from output format", "file", path, "format", s.Format.String(), "output_format", format.String())
		}

		buf.Write(s.Data)
		slog.Debug("appended input", "file", path, "bytes", len(s.Data))
	}

	var hdr bytes.Buffer
	if _, err := audio.WriteWAVHeader(&hdr, format, buf.Len()-audio.HeaderSize); err != nil {
		return nil, format, fmt.Errorf("write header: %w", err)
	}

	out := buf.Bytes()
	copy(out, hdr.Bytes())

	return out, format, nil
}

// ParseFuzzyBool accepts any case-insensitive prefix of "true" or "false".
// The empty string is a prefix of both and reads as true.
func ParseFuzzyBool(s string) (bool, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix("TRUE", v):
		return true, nil
	case strings.HasPrefix("FALSE", v):
		return false, nil
	default:
		return false, fmt.Errorf("%q is neither true nor false", s)
	}
}
