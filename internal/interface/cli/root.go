// Package cli wires the planning engine, store, and tracker into the
// dayplan command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"dayplan/internal/core/config"
	"dayplan/internal/core/store"
)

var (
	dataDir     string
	debugLog    bool
	cfg         *config.Config
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dayplan",
	Short: "Conversational day planner",
	Long: `dayplan - plan your day in a short conversation, then track it

Builds a daily schedule through a few clarifying questions, tracks what
actually happened, and learns your preferences across sessions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if debugLog {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if cfg.DataDir == "" {
			return fmt.Errorf("no data directory: set --data-dir or data_dir in config")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.local/share/dayplan)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
}

func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.DataDir, err)
	}
	return st, nil
}
