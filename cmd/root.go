// Package cmd implements the multishot command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"multishot/config"
	"multishot/logger"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug logging for all commands.
	Debug bool
)

// NewRootCommand builds the command tree. The root command performs a
// capture; devices and version are subcommands.
func NewRootCommand() *cobra.Command {
	opts := &captureOptions{}
	rootCmd := &cobra.Command{
		Use:   "multishot [url]",
		Short: "Capture a web page across many device viewports",
		Long: `multishot renders a web page in headless Chrome once per device viewport and
saves a viewport and a full-page PNG for each device, optionally with the page's
OpenGraph metadata. Run "multishot --info" for a complete guide.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, opts, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./multishot.yaml, ./config/multishot.yaml or ~/.config/multishot/multishot.yaml)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug logging")
	opts.register(rootCmd)

	rootCmd.AddCommand(newDevicesCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// Execute runs the root command until it finishes or the process receives
// SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// loadDependencies reads configuration and builds the logger.
func loadDependencies() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(viper.New(), cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: strings.ToLower(cfg.Log.Format),
	}
	if Debug {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}
