package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/example/go-wavprep/internal/config"
	"github.com/example/go-wavprep/internal/logging"
	"github.com/example/go-wavprep/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg *config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "wavprep",
		Short:         "Prepare WAV audio for model training",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			activeCfg = &loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterRootFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newChunkCmd(defaults))
	cmd.AddCommand(newConcatCmd(defaults))
	cmd.AddCommand(newAugmentCmd(defaults))
	cmd.AddCommand(newWindowsCmd(defaults))

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	slog.SetDefault(logging.New(os.Stderr, levelStr))
}

func requireConfig() (config.Config, error) {
	if activeCfg == nil {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return *activeCfg, nil
}

func s3Config(cfg config.Config) storage.S3Config {
	return storage.S3Config{
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	}
}
