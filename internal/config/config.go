// Package config loads wavprep settings from flags, WAVPREP_* environment
// variables, an optional config file and defaults, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// keyAnnotation marks a flag with the config key it sets.
const keyAnnotation = "wavprep_config_key"

type Config struct {
	LogLevel string        `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	S3       S3Config      `mapstructure:"s3"`
	Chunk    ChunkConfig   `mapstructure:"chunk" validate:"-"`
	Concat   ConcatConfig  `mapstructure:"concat" validate:"-"`
	Augment  AugmentConfig `mapstructure:"augment" validate:"-"`
	Dataset  DatasetConfig `mapstructure:"dataset" validate:"-"`
}

type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id" validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required_with=AccessKeyID"`
}

type ChunkConfig struct {
	InputFile     string  `mapstructure:"input_file" validate:"required"`
	OutputDir     string  `mapstructure:"output_dir" validate:"required"`
	ChunkLength   int     `mapstructure:"chunk_length" validate:"gt=0"`
	Overlap       int     `mapstructure:"overlap" validate:"gte=0,ltfield=ChunkLength"`
	SilenceThresh float64 `mapstructure:"silence_thresh" validate:"lte=0"`
	KeepBoundary  bool    `mapstructure:"keep_boundary"`
}

type ConcatConfig struct {
	InputDir   string `mapstructure:"input_dir" validate:"required"`
	OutputPath string `mapstructure:"output_path" validate:"required"`
	// Shuffle is parsed leniently: any prefix of "true" or "false".
	Shuffle string `mapstructure:"shuffle"`
	Seed    uint64 `mapstructure:"seed"`
	Strict  bool   `mapstructure:"strict"`
}

type AugmentConfig struct {
	InputFile  string `mapstructure:"input_file" validate:"required"`
	OutputFile string `mapstructure:"output_file" validate:"required"`
	Chain      string `mapstructure:"chain" validate:"excluded_with=ChainFile"`
	ChainFile  string `mapstructure:"chain_file"`
	Seed       uint64 `mapstructure:"seed"`
}

type DatasetConfig struct {
	InputDir   string `mapstructure:"input_dir" validate:"required"`
	BatchSize  int    `mapstructure:"batch_size" validate:"gt=0"`
	SeqLen     int    `mapstructure:"seq_len" validate:"gt=0"`
	Overlap    int    `mapstructure:"overlap" validate:"gte=0"`
	Workers    int    `mapstructure:"workers" validate:"gte=0"`
	SampleRate int    `mapstructure:"sample_rate" validate:"gt=0"`
	Shuffle    bool   `mapstructure:"shuffle"`
	Augment    bool   `mapstructure:"augment"`
	Chain      string `mapstructure:"chain"`
	Seed       uint64 `mapstructure:"seed"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Chunk: ChunkConfig{
			ChunkLength:   8000,
			Overlap:       0,
			SilenceThresh: -64,
		},
		Concat: ConcatConfig{
			Shuffle: "true",
		},
		Dataset: DatasetConfig{
			BatchSize:  8,
			SeqLen:     1024,
			Overlap:    64,
			SampleRate: 16000,
			Shuffle:    true,
		},
	}
}

// Validate checks the global settings. Command sections are checked by
// their own Validate methods so one command's missing paths do not fail
// another.
func (c Config) Validate() error {
	return validationError("config", validate.Struct(c))
}

func (c ChunkConfig) Validate() error   { return validationError("chunk", validate.Struct(c)) }
func (c ConcatConfig) Validate() error  { return validationError("concat", validate.Struct(c)) }
func (c AugmentConfig) Validate() error { return validationError("augment", validate.Struct(c)) }
func (c DatasetConfig) Validate() error { return validationError("dataset", validate.Struct(c)) }

func validationError(section string, err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid %s config: %w", section, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}

	return fmt.Errorf("invalid %s config: %s: %w", section, strings.Join(msgs, "; "), err)
}

// RegisterRootFlags registers the flags shared by every command.
func RegisterRootFlags(fs *pflag.FlagSet, defaults Config) {
	stringFlag(fs, "log_level", "log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	stringFlag(fs, "s3.region", "s3-region", defaults.S3.Region, "AWS region for s3:// outputs")
	stringFlag(fs, "s3.endpoint", "s3-endpoint", defaults.S3.Endpoint, "Custom S3-compatible endpoint URL")
	stringFlag(fs, "s3.access_key_id", "s3-access-key-id", defaults.S3.AccessKeyID, "Static S3 access key ID")
	stringFlag(fs, "s3.secret_access_key", "s3-secret-access-key", defaults.S3.SecretAccessKey, "Static S3 secret access key")
}

func RegisterChunkFlags(fs *pflag.FlagSet, defaults Config) {
	d := defaults.Chunk
	stringFlag(fs, "chunk.input_file", "input_file", d.InputFile, "Path to the WAV file to chunk")
	stringFlag(fs, "chunk.output_dir", "output_dir", d.OutputDir, "Directory or s3://bucket/prefix for the chunks")
	intFlag(fs, "chunk.chunk_length", "chunk_length", d.ChunkLength, "Chunk length in milliseconds")
	intFlag(fs, "chunk.overlap", "overlap", d.Overlap, "Overlap between consecutive chunks in milliseconds")
	float64Flag(fs, "chunk.silence_thresh", "silence_thresh", d.SilenceThresh, "Silence threshold in dBFS")
	boolFlag(fs, "chunk.keep_boundary", "keep_boundary", d.KeepBoundary, "Also export the final chunk that reaches the end of the input")
}

func RegisterConcatFlags(fs *pflag.FlagSet, defaults Config) {
	d := defaults.Concat
	stringFlag(fs, "concat.input_dir", "input_dir", d.InputDir, "Directory searched recursively for .wav files")
	stringFlag(fs, "concat.output_path", "output_path", d.OutputPath, "Output WAV path or s3://bucket/key")
	stringFlag(fs, "concat.shuffle", "shuffle", d.Shuffle, "Shuffle inputs before joining (any prefix of true/false)")
	uint64Flag(fs, "concat.seed", "seed", d.Seed, "Shuffle seed (0 picks a random one)")
	boolFlag(fs, "concat.strict", "strict", d.Strict, "Fail when an input's format differs from the first file's")
}

func RegisterAugmentFlags(fs *pflag.FlagSet, defaults Config) {
	d := defaults.Augment
	stringFlag(fs, "augment.input_file", "input_file", d.InputFile, "WAV file to augment")
	stringFlag(fs, "augment.output_file", "output_file", d.OutputFile, "Where to write the augmented WAV")
	stringFlag(fs, "augment.chain", "chain", d.Chain, "Augmentation chain as JSON (default chain when empty)")
	stringFlag(fs, "augment.chain_file", "chain_file", d.ChainFile, "File holding the augmentation chain JSON")
	uint64Flag(fs, "augment.seed", "seed", d.Seed, "Random seed (0 picks a random one)")
}

func RegisterDatasetFlags(fs *pflag.FlagSet, defaults Config) {
	d := defaults.Dataset
	stringFlag(fs, "dataset.input_dir", "input_dir", d.InputDir, "Directory searched recursively for .wav files")
	intFlag(fs, "dataset.batch_size", "batch_size", d.BatchSize, "Sequences per batch")
	intFlag(fs, "dataset.seq_len", "seq_len", d.SeqLen, "Target steps per window")
	intFlag(fs, "dataset.overlap", "overlap", d.Overlap, "Context steps shared by consecutive windows")
	intFlag(fs, "dataset.workers", "workers", d.Workers, "Parallel augmentation workers (0 uses GOMAXPROCS)")
	intFlag(fs, "dataset.sample_rate", "sample_rate", d.SampleRate, "Required input sample rate")
	boolFlag(fs, "dataset.shuffle", "shuffle", d.Shuffle, "Shuffle files on every pass")
	boolFlag(fs, "dataset.augment", "augment", d.Augment, "Augment each sequence before batching")
	stringFlag(fs, "dataset.chain", "chain", d.Chain, "Augmentation chain as JSON (default chain when empty)")
	uint64Flag(fs, "dataset.seed", "seed", d.Seed, "Random seed (0 picks a random one)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("WAVPREP")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("wavprep")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// bindFlags binds every annotated flag in fs to its config key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[keyAnnotation]
		if err != nil || len(keys) == 0 {
			return
		}
		if bindErr := v.BindPFlag(keys[0], f); bindErr != nil {
			err = fmt.Errorf("bind flag --%s: %w", f.Name, bindErr)
		}
	})

	return err
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("s3.region", c.S3.Region)
	v.SetDefault("s3.endpoint", c.S3.Endpoint)
	v.SetDefault("s3.access_key_id", c.S3.AccessKeyID)
	v.SetDefault("s3.secret_access_key", c.S3.SecretAccessKey)
	v.SetDefault("chunk.input_file", c.Chunk.InputFile)
	v.SetDefault("chunk.output_dir", c.Chunk.OutputDir)
	v.SetDefault("chunk.chunk_length", c.Chunk.ChunkLength)
	v.SetDefault("chunk.overlap", c.Chunk.Overlap)
	v.SetDefault("chunk.silence_thresh", c.Chunk.SilenceThresh)
	v.SetDefault("chunk.keep_boundary", c.Chunk.KeepBoundary)
	v.SetDefault("concat.input_dir", c.Concat.InputDir)
	v.SetDefault("concat.output_path", c.Concat.OutputPath)
	v.SetDefault("concat.shuffle", c.Concat.Shuffle)
	v.SetDefault("concat.seed", c.Concat.Seed)
	v.SetDefault("concat.strict", c.Concat.Strict)
	v.SetDefault("augment.input_file", c.Augment.InputFile)
	v.SetDefault("augment.output_file", c.Augment.OutputFile)
	v.SetDefault("augment.chain", c.Augment.Chain)
	v.SetDefault("augment.chain_file", c.Augment.ChainFile)
	v.SetDefault("augment.seed", c.Augment.Seed)
	v.SetDefault("dataset.input_dir", c.Dataset.InputDir)
	v.SetDefault("dataset.batch_size", c.Dataset.BatchSize)
	v.SetDefault("dataset.seq_len", c.Dataset.SeqLen)
	v.SetDefault("dataset.overlap", c.Dataset.Overlap)
	v.SetDefault("dataset.workers", c.Dataset.Workers)
	v.SetDefault("dataset.sample_rate", c.Dataset.SampleRate)
	v.SetDefault("dataset.shuffle", c.Dataset.Shuffle)
	v.SetDefault("dataset.augment", c.Dataset.Augment)
	v.SetDefault("dataset.chain", c.Dataset.Chain)
	v.SetDefault("dataset.seed", c.Dataset.Seed)
}
