package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wwwbq/FlashMemo/internal/config"
	"github.com/wwwbq/FlashMemo/internal/platform"
	"github.com/wwwbq/FlashMemo/pkg/core"
)

var (
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flashmemo",
	Short: "Capture notes into tag indices and retrieve them by question",
	Long: `FlashMemo files short notes under one or more tags, either as Markdown
files in a local directory or as documents in a remote folder tree, and
answers questions by routing them to the relevant tags.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default searches ./config.yaml and the user config dir)")
}

// loadConfig reads the configuration or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("Error loading config", err)
	}
	return cfg
}

// openService builds the storage described by cfg and wraps it in a service.
func openService(cfg *config.Config) *core.Service {
	uri, opts, err := platform.FromConfig(cfg, slog.Default())
	if err != nil {
		fatal("Error reading storage settings", err)
	}
	service, err := platform.New(uri, opts...)
	if err != nil {
		fatal("Error opening storage", err)
	}
	return service
}
