// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"samplex/internal/config"
	"samplex/internal/log"
	"samplex/pkg/build"
)

// options holds the flag values shared by every command.
type options struct {
	configPath string
	logLevel   string
	verbose    bool
	tuner      string

	// play
	record   string
	noDevice bool
}

// Execute parses args and runs the selected command until it finishes or
// ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	buildInfo := build.GetBuildFlags()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [dir]",
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runBrowser(cfg, dir)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Headless playback
	playCmd := &cobra.Command{
		Use:   "play <file>...",
		Short: "Play files in order and publish analyzer snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runPlay(cmd.Context(), cfg, opts, args)
		},
	}
	playCmd.Flags().StringVarP(&opts.record, "record", "r", "",
		"Also write everything played to this WAV file (one take per file)")
	playCmd.Flags().BoolVar(&opts.noDevice, "no-device", false,
		"Do not open an output device; with --record this bounces offline")
	rootCmd.AddCommand(playCmd)

	// List command
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available output devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.load(); err != nil {
				return err
			}
			return runDevices()
		},
	}
	rootCmd.AddCommand(devicesCmd)

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to config.yaml (default: ./config.yaml, then the user config directory)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides the config file)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output (same as --log-level debug)")
	rootCmd.PersistentFlags().StringVarP(&opts.tuner, "tuner", "t", "",
		"Pitch estimator: hps or yin (overrides the config file)")

	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// load reads the configuration, applies flag overrides, and sets the log level.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	if o.tuner != "" {
		cfg.Analysis.TunerStrategy = strings.ToLower(o.tuner)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, ok := log.ParseLevel(cfg.LogLevel)
	if !ok && cfg.LogLevel != "" {
		return nil, fmt.Errorf("%w: unknown log level %q", config.ErrInvalidConfig, cfg.LogLevel)
	}
	log.SetLevel(level)
	return cfg, nil
}
