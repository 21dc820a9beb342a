// Package storage provides the output sinks chunk and concatenation results
// are written to: a local directory or an S3 bucket prefix.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotDirectory is returned when a local output target names an existing
// file.
var ErrNotDirectory = errors.New("not a directory")

// Sink stores named output files.
type Sink interface {
	// Put stores data under name and returns the resulting location
	// (a file path or an s3:// URI).
	Put(ctx context.Context, name string, data []byte) (location string, err error)

	// Location describes where the sink writes, for log and summary lines.
	Location() string
}

const s3Scheme = "s3://"

// IsS3URI reports whether target addresses an S3 bucket.
func IsS3URI(target string) bool {
	return strings.HasPrefix(target, s3Scheme)
}

// ParseS3URI splits s3://bucket/prefix into bucket and prefix. The prefix
// has no leading or trailing slash.
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	if !IsS3URI(uri) {
		return "", "", fmt.Errorf("not an s3 URI: %q", uri)
	}

	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 URI %q has no bucket", uri)
	}

	return bucket, strings.Trim(prefix, "/"), nil
}

// Open returns the sink for target: an S3Sink for s3://bucket/prefix URIs,
// a LocalSink for anything else. Local directories are created if missing.
func Open(ctx context.Context, target string, cfg S3Config) (Sink, error) {
	if !IsS3URI(target) {
		return NewLocalSink(target)
	}

	bucket, prefix, err := ParseS3URI(target)
	if err != nil {
		return nil, err
	}
	cfg.Bucket = bucket

	return NewS3Sink(ctx, cfg, prefix)
}

// OpenFile splits a single output target (a file path or s3://bucket/key)
// into the sink for its parent location and the name to Put under.
func OpenFile(ctx context.Context, target string, cfg S3Config) (Sink, string, error) {
	if IsS3URI(target) {
		parent, name := path.Split(strings.TrimPrefix(target, s3Scheme))
		if name == "" {
			return nil, "", fmt.Errorf("s3 target %q has no object name", target)
		}
		sink, err := Open(ctx, s3Scheme+parent, cfg)
		return sink, name, err
	}

	sink, err := NewLocalSink(filepath.Dir(target))
	if err != nil {
		return nil, "", err
	}

	return sink, filepath.Base(target), nil
}
