package main

import (
	"github.com/example/go-wavprep/internal/chunker"
	"github.com/example/go-wavprep/internal/config"
	"github.com/example/go-wavprep/internal/storage"
	"github.com/spf13/cobra"
)

func newChunkCmd(defaults config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunk",
		Short: "Split a WAV file into fixed-length chunks, dropping silent ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			c := cfg.Chunk
			if err := c.Validate(); err != nil {
				return err
			}

			sink, err := storage.Open(cmd.Context(), c.OutputDir, s3Config(cfg))
			if err != nil {
				return err
			}

			_, err = chunker.Run(cmd.Context(), chunker.Options{
				ChunkLengthMS:   c.ChunkLength,
				OverlapMS:       c.Overlap,
				SilenceThreshDB: c.SilenceThresh,
				KeepBoundary:    c.KeepBoundary,
			}, c.InputFile, sink, cmd.OutOrStdout())
			return err
		},
	}

	config.RegisterChunkFlags(cmd.Flags(), defaults)

	return cmd
}
