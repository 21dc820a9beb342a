package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

func newFlagSet(register ...func(*pflag.FlagSet, Config)) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	for _, r := range register {
		r(fs, DefaultConfig())
	}

	return fs
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}

	if cfg.Chunk.ChunkLength != 8000 {
		t.Errorf("Chunk.ChunkLength = %d; want 8000", cfg.Chunk.ChunkLength)
	}

	if cfg.Chunk.Overlap != 0 {
		t.Errorf("Chunk.Overlap = %d; want 0", cfg.Chunk.Overlap)
	}

	if cfg.Chunk.SilenceThresh != -64 {
		t.Errorf("Chunk.SilenceThresh = %v; want -64", cfg.Chunk.SilenceThresh)
	}

	if cfg.Concat.Shuffle != "true" {
		t.Errorf("Concat.Shuffle = %q; want %q", cfg.Concat.Shuffle, "true")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestRegisterFlags(t *testing.T) {
	tests := []struct {
		name     string
		register func(*pflag.FlagSet, Config)
		flags    []string
	}{
		{"root", RegisterRootFlags, []string{"log-level", "s3-region", "s3-endpoint", "s3-access-key-id", "s3-secret-access-key"}},
		{"chunk", RegisterChunkFlags, []string{"input_file", "output_dir", "chunk_length", "overlap", "silence_thresh", "keep_boundary"}},
		{"concat", RegisterConcatFlags, []string{"input_dir", "output_path", "shuffle", "seed", "strict"}},
		{"augment", RegisterAugmentFlags, []string{"input_file", "output_file", "chain", "chain_file", "seed"}},
		{"dataset", RegisterDatasetFlags, []string{"input_dir", "batch_size", "seq_len", "overlap", "workers", "sample_rate", "shuffle", "augment", "chain", "seed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFlagSet(tt.register)
			for _, name := range tt.flags {
				f := fs.Lookup(name)
				if f == nil {
					t.Errorf("flag --%s not registered", name)
					continue
				}
				if len(f.Annotations[keyAnnotation]) != 1 {
					t.Errorf("flag --%s has no config key", name)
				}
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Chunk.ChunkLength != 8000 {
		t.Errorf("Chunk.ChunkLength = %d; want 8000", cfg.Chunk.ChunkLength)
	}

	if cfg.Dataset.BatchSize != 8 {
		t.Errorf("Dataset.BatchSize = %d; want 8", cfg.Dataset.BatchSize)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	fs := newFlagSet(RegisterRootFlags, RegisterChunkFlags)

	err := fs.Parse([]string{
		"--input_file=talk.wav",
		"--output_dir=out",
		"--chunk_length=4000",
		"--overlap=1000",
		"--silence_thresh=-50",
		"--log-level=debug",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: &fakeBinder{fs: fs}, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := ChunkConfig{InputFile: "talk.wav", OutputDir: "out", ChunkLength: 4000, Overlap: 1000, SilenceThresh: -50}
	if cfg.Chunk != want {
		t.Errorf("Chunk = %+v; want %+v", cfg.Chunk, want)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_SharedFlagNamesStayInTheirSection(t *testing.T) {
	fs := newFlagSet(RegisterAugmentFlags)
	if err := fs.Parse([]string{"--input_file=a.wav", "--seed=9"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: &fakeBinder{fs: fs}, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Augment.InputFile != "a.wav" || cfg.Augment.Seed != 9 {
		t.Errorf("Augment = %+v", cfg.Augment)
	}

	if cfg.Chunk.InputFile != "" || cfg.Concat.Seed != 0 {
		t.Errorf("augment flags leaked into other sections: chunk=%+v concat=%+v", cfg.Chunk, cfg.Concat)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WAVPREP_LOG_LEVEL", "warn")
	t.Setenv("WAVPREP_CHUNK_CHUNK_LENGTH", "2000")
	t.Setenv("WAVPREP_CONCAT_SHUFFLE", "f")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Chunk.ChunkLength != 2000 {
		t.Errorf("Chunk.ChunkLength = %d; want 2000", cfg.Chunk.ChunkLength)
	}

	if cfg.Concat.Shuffle != "f" {
		t.Errorf("Concat.Shuffle = %q; want %q", cfg.Concat.Shuffle, "f")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "wavprep.yaml")

	content := `
log_level: error
chunk:
  chunk_length: 3000
  overlap: 500
dataset:
  batch_size: 32
`

	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// Registered but unset flags must not mask file values.
	fs := newFlagSet(RegisterRootFlags, RegisterChunkFlags)
	if err := fs.Parse([]string{"--overlap=750"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: &fakeBinder{fs: fs}, ConfigFile: cfgFile, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Chunk.ChunkLength != 3000 {
		t.Errorf("Chunk.ChunkLength = %d; want 3000", cfg.Chunk.ChunkLength)
	}

	if cfg.Chunk.Overlap != 750 {
		t.Errorf("Chunk.Overlap = %d; want 750 (flag beats file)", cfg.Chunk.Overlap)
	}

	if cfg.Dataset.BatchSize != 32 {
		t.Errorf("Dataset.BatchSize = %d; want 32", cfg.Dataset.BatchSize)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(cfgFile, []byte("chunk: [unterminated"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(LoadOptions{ConfigFile: cfgFile, Defaults: DefaultConfig()}); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"), Defaults: DefaultConfig()})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr string
	}{
		{
			name: "valid chunk",
			err:  ChunkConfig{InputFile: "a.wav", OutputDir: "out", ChunkLength: 8000}.Validate(),
		},
		{
			name:    "missing input",
			err:     ChunkConfig{OutputDir: "out", ChunkLength: 8000}.Validate(),
			wantErr: "InputFile",
		},
		{
			name:    "overlap not below chunk length",
			err:     ChunkConfig{InputFile: "a", OutputDir: "o", ChunkLength: 1000, Overlap: 1000}.Validate(),
			wantErr: "Overlap",
		},
		{
			name:    "positive silence threshold",
			err:     ChunkConfig{InputFile: "a", OutputDir: "o", ChunkLength: 1000, SilenceThresh: 3}.Validate(),
			wantErr: "SilenceThresh",
		},
		{
			name:    "concat paths",
			err:     ConcatConfig{}.Validate(),
			wantErr: "InputDir",
		},
		{
			name:    "augment chain and chain file",
			err:     AugmentConfig{InputFile: "a", OutputFile: "b", Chain: "[]", ChainFile: "s.json"}.Validate(),
			wantErr: "Chain",
		},
		{
			name:    "dataset batch size",
			err:     DatasetConfig{InputDir: "d", SeqLen: 10, SampleRate: 16000}.Validate(),
			wantErr: "BatchSize",
		},
		{
			name:    "log level",
			err:     Config{LogLevel: "verbose"}.Validate(),
			wantErr: "LogLevel",
		},
		{
			name:    "half of static credentials",
			err:     Config{LogLevel: "info", S3: S3Config{AccessKeyID: "id"}}.Validate(),
			wantErr: "SecretAccessKey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr == "" {
				if tt.err != nil {
					t.Fatalf("Validate() error = %v", tt.err)
				}
				return
			}

			if tt.err == nil || !strings.Contains(tt.err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v; want mention of %q", tt.err, tt.wantErr)
			}
		})
	}
}
