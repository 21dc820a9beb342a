package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/example/go-wavprep/internal/concat"
	"github.com/example/go-wavprep/internal/config"
	"github.com/example/go-wavprep/internal/storage"
	"github.com/spf13/cobra"
)

func newConcatCmd(defaults config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "concat",
		Short: "Join every .wav file below a directory into one WAV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			c := cfg.Concat
			if err := c.Validate(); err != nil {
				return err
			}

			shuffle, err := concat.ParseFuzzyBool(c.Shuffle)
			if err != nil {
				return fmt.Errorf("--shuffle: %w", err)
			}

			sink, name, err := storage.OpenFile(cmd.Context(), c.OutputPath, s3Config(cfg))
			if err != nil {
				return err
			}

			res, err := concat.Concatenate(cmd.Context(), c.InputDir, sink, name, concat.Options{
				Shuffle: shuffle,
				Rand:    seededRand(c.Seed),
				Strict:  c.Strict,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return err
		},
	}

	config.RegisterConcatFlags(cmd.Flags(), defaults)

	return cmd
}

// seededRand returns a generator for seed, or nil for seed 0.
func seededRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}

	return rand.New(rand.NewPCG(seed, seed))
}
