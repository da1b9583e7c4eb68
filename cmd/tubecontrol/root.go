package main

import (
	"fmt"

	"github.com/ayusman/tubecontrol/internal/config"
	"github.com/ayusman/tubecontrol/internal/log"
	"github.com/ayusman/tubecontrol/internal/store"
	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

// cli carries state shared by the subcommands.
type cli struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "tubecontrol",
		Short:         "Control a video player with hand gestures and eye focus",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context(), c.configPath)
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.LogLevel = c.logLevel
			}
			log.Init(cfg.LogLevel)
			c.cfg = cfg
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (default: $"+config.EnvConfigFile+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(c),
		newBindingsCmd(c),
		newCalibrationCmd(c),
	)
	return root
}

// openStore opens the configured database.
func (c *cli) openStore() (*store.Store, error) {
	st, err := store.New(c.cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}
