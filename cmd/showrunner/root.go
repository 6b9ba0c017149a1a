package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mferrall/showrunner/internal/config"
	"github.com/mferrall/showrunner/internal/logging"
)

type rootFlags struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "showrunner",
		Short:         "Multi-director production pipeline for AI music videos",
		Long:          "showrunner runs a creative brief through a phased production pipeline.\nEach phase pits a roster of director personas against each other; an\nexecutive-producer pass picks and refines the winning take.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "showrunner.yaml", "path to the config file")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "verbose logging")

	cmd.AddCommand(
		newInitCmd(flags),
		newRunCmd(flags),
		newResumeCmd(flags),
		newStatusCmd(flags),
	)
	return cmd
}

// setup loads .env, the config file and the logger shared by every
// subcommand that actually runs the pipeline.
func setup(flags *rootFlags) (*config.Config, *zap.Logger, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("no config at %s (run `showrunner init` to create one)", flags.configPath)
		}
		return nil, nil, err
	}

	logger, err := logging.New(flags.debug || cfg.Logging.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}
