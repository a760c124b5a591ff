package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/greenplot/ecdash/internal/analysis"
	"github.com/greenplot/ecdash/internal/dataset"
	"github.com/greenplot/ecdash/internal/export"
	"github.com/greenplot/ecdash/internal/report"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the full report (HTML + chart PNGs) into a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := dataset.NewStore(cfg.DataDir)
		snap, err := store.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load datasets: %w", err)
		}
		sum := analysis.Summarize(snap, cfg)

		if err := os.MkdirAll(reportOut, 0o755); err != nil {
			return fmt.Errorf("mkdir output dir: %w", err)
		}

		for _, ch := range report.Charts(cfg, sum) {
			name := ch.Name + ".png"
			b, err := ch.Build()
			if err != nil {
				if errors.Is(err, report.ErrNoSeries) {
					fmt.Fprintf(os.Stderr, "⚠ Warning: %s: no data, skipped\n", name)
					continue
				}
				return err
			}
			if err := export.WriteFile(filepath.Join(reportOut, name), b); err != nil {
				return err
			}
		}

		groups := sum.GroupsWithEnv(snap)
		var images []report.Image
		for _, group := range groups {
			png, err := timeSeriesPNG(snap, sum, group)
			if err != nil {
				if errors.Is(err, report.ErrNoSeries) {
					continue
				}
				return err
			}
			name := fmt.Sprintf("timeseries_%s.png", group)
			if err := export.WriteFile(filepath.Join(reportOut, name), png); err != nil {
				return err
			}
			images = append(images, report.Image{Group: group, Src: name})
		}

		page, err := report.Page(report.PageConfig{
			Title:      cfg.ReportTitle,
			TimeSeries: images,
			Warnings:   snap.Layout.Warnings,
		}, sum, groups)
		if err != nil {
			return err
		}
		out := filepath.Join(reportOut, "index.html")
		if err := export.WriteFile(out, page); err != nil {
			return err
		}
		fmt.Printf("✓ Report written to %s\n", out)
		return nil
	},
}

func timeSeriesPNG(snap *dataset.Snapshot, sum *analysis.Summary, group string) ([]byte, error) {
	tbl := snap.Env[group]
	var em analysis.EnvMeans
	for _, e := range sum.Env {
		if e.Group == group {
			em = e
			break
		}
	}
	times, err := tbl.Column("time")
	if err != nil {
		return nil, err
	}
	return report.TimeSeries(cfg, group, em, times,
		tbl.FloatCells("temperature"), tbl.FloatCells("humidity"), tbl.FloatCells("ec"))
}

func init() {
	reportCmd.Flags().StringVar(&reportOut, "out", "report", "output directory")
	rootCmd.AddCommand(reportCmd)
}
