package main

import (
	"fmt"
	"io"
	"os"

	"visits/internal/config"
	"visits/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "visits",
		Short:         "Holiday-aware visit booking scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "configs/config.yaml"
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultPath, "path to config.yaml")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newHolidaysCmd())
	root.AddCommand(newSlotsCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newHashPasswordCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// loadConfigAndLogger reads the config and builds the base logger.
func (o *rootOptions) loadConfigAndLogger(component string) (*config.Config, zerolog.Logger, io.Closer, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	base, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(base, component), closer, nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
