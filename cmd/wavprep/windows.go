package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/example/go-wavprep/internal/concat"
	"github.com/example/go-wavprep/internal/config"
	"github.com/example/go-wavprep/internal/dataset"
	"github.com/spf13/cobra"
)

func newWindowsCmd(defaults config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "Run one pass of the training window pipeline and report its shape",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			c := cfg.Dataset
			if err := c.Validate(); err != nil {
				return err
			}

			files, err := concat.FindWAVFiles(c.InputDir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("%w in %s", concat.ErrNoInputFiles, c.InputDir)
			}

			loaderOpts := []dataset.LoaderOption{
				dataset.WithShuffle(c.Shuffle),
				dataset.WithSampleRate(c.SampleRate),
			}
			if c.Seed != 0 {
				loaderOpts = append(loaderOpts, dataset.WithRand(rand.New(rand.NewPCG(c.Seed, c.Seed))))
			}
			seqs := dataset.Load(files, loaderOpts...).All()

			if c.Augment {
				chainText, err := resolveChain(c.Chain, "")
				if err != nil {
					return err
				}
				pipeline, err := newPipeline(chainText, c.SampleRate, c.Seed)
				if err != nil {
					return err
				}
				seqs = dataset.MapParallel(seqs, c.Workers, pipeline.Apply)
			}

			ctx := cmd.Context()
			windows := 0
			var xShape, yShape []int64
			for w, err := range dataset.CrossBatchSequence(dataset.Batch(seqs, c.BatchSize), c.SeqLen, c.Overlap) {
				if err != nil {
					return err
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				if windows == 0 {
					xShape, yShape = w.X.Shape(), w.Y.Shape()
				}
				windows++
			}

			out := cmd.OutOrStdout()
			if windows == 0 {
				_, err = fmt.Fprintf(out, "No windows produced from %d files.\n", len(files))
				return err
			}
			_, err = fmt.Fprintf(out, "%d windows from %d files: x %v, y %v.\n", windows, len(files), xShape, yShape)
			return err
		},
	}

	config.RegisterDatasetFlags(cmd.Flags(), defaults)

	return cmd
}
