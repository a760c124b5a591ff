package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenplot/ecdash/internal/dataset"
	"github.com/greenplot/ecdash/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive dashboard over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := dataset.NewStore(cfg.DataDir)

		// Load once before listening: missing data is a startup error, not
		// something to discover request by request.
		if _, err := store.Load(context.Background()); err != nil {
			return fmt.Errorf("load datasets: %w", err)
		}

		loglevel := "info"
		if debug {
			loglevel = "debug"
		}
		e := server.BuildServer(store, cfg, loglevel)

		addr := serveListen
		if addr == "" {
			addr = cfg.ListenAddr
		}
		fmt.Printf("🌱 serving %s on %s (data: %s)\n", cfg.ReportTitle, addr, cfg.DataDir)
		return e.Start(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
