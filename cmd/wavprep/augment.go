package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/example/go-wavprep/internal/audio"
	"github.com/example/go-wavprep/internal/augment"
	"github.com/example/go-wavprep/internal/config"
	"github.com/example/go-wavprep/internal/storage"
	"github.com/spf13/cobra"
)

func newAugmentCmd(defaults config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "augment",
		Short: "Apply a randomized augmentation chain to a WAV file",
		Long: "Apply a randomized augmentation chain to a WAV file.\n\nRegistered transforms: " +
			strings.Join(augment.Names(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			c := cfg.Augment
			if err := c.Validate(); err != nil {
				return err
			}

			chainText, err := resolveChain(c.Chain, c.ChainFile)
			if err != nil {
				return err
			}

			samples, format, err := audio.ReadFloatFile(c.InputFile)
			if err != nil {
				return err
			}

			pipeline, err := newPipeline(chainText, format.SampleRate, c.Seed)
			if err != nil {
				return err
			}

			mono := audio.DownmixMono(samples, format.NumChannels)
			out := pipeline.Apply(mono)

			outFormat := audio.Format{NumChannels: 1, BitDepth: format.BitDepth, SampleRate: format.SampleRate}
			data, err := audio.EncodeFloat(out, outFormat)
			if err != nil {
				return fmt.Errorf("encode output: %w", err)
			}

			sink, name, err := storage.OpenFile(cmd.Context(), c.OutputFile, s3Config(cfg))
			if err != nil {
				return err
			}
			location, err := sink.Put(cmd.Context(), name, data)
			if err != nil {
				return err
			}

			slog.Debug("augmented", "input", c.InputFile, "output", location, "steps", pipeline.Names())
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Augmented %s into %s (%d -> %d samples).\n", c.InputFile, location, len(mono), len(out))
			return err
		},
	}

	config.RegisterAugmentFlags(cmd.Flags(), defaults)

	return cmd
}

// resolveChain returns the chain JSON from an inline value, a file, or the
// default chain, in that order.
func resolveChain(inline, file string) (string, error) {
	switch {
	case inline != "":
		return inline, nil
	case file != "":
		data, err := os.ReadFile(file) // #nosec G304 -- user-selected chain file.
		if err != nil {
			return "", fmt.Errorf("read chain file: %w", err)
		}
		return string(data), nil
	default:
		return augment.DefaultChainJSON, nil
	}
}

func newPipeline(chainText string, sampleRate int, seed uint64) (*augment.Pipeline, error) {
	var opts []augment.Option
	if seed != 0 {
		opts = append(opts, augment.WithSeed(seed))
	}

	return augment.ComposeJSON(chainText, sampleRate, opts...)
}
