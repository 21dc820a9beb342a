package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalSink writes files into a directory on local disk.
type LocalSink struct {
	dir string
}

// NewLocalSink creates a LocalSink rooted at dir. The directory is created
// by the first Put, so a run that writes nothing leaves no trace on disk.
// dir must not name an existing file.
func NewLocalSink(dir string) (*LocalSink, error) {
	if dir == "" {
		dir = "."
	}

	if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
		return nil, fmt.Errorf("output directory %s: %w", dir, ErrNotDirectory)
	}

	return &LocalSink{dir: dir}, nil
}

// Location returns the output directory.
func (s *LocalSink) Location() string {
	return s.dir
}

// Put writes data to dir/name, replacing any existing file of that name.
func (s *LocalSink) Put(ctx context.Context, name string, data []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- audio output is not secret.
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}
