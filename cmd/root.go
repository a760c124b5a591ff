package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/greenplot/ecdash/internal/config"
)

var (
	// Global flags (wired to config on initialize)
	cfgFile     string
	debug       bool
	flagDataDir string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "ecdash",
	Short: "ecdash: reporting dashboard for the polar-plant EC experiment",
	Long: `ecdash loads per-school environment CSVs and the shared growth workbook,
aggregates them per experimental group, and serves or exports comparison
reports for the optimal-EC study.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.ecdash/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal here: the failing command reports the real error.
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = cfgpkg.Default()
	} else {
		cfg = c
	}
	if rootCmd.PersistentFlags().Changed("data-dir") && flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
}
