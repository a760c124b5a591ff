package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/greenplot/ecdash/internal/analysis"
	"github.com/greenplot/ecdash/internal/dataset"
	"github.com/greenplot/ecdash/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write per-group environment CSVs and the combined growth workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := dataset.NewStore(cfg.DataDir)
		snap, err := store.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load datasets: %w", err)
		}
		sum := analysis.Summarize(snap, cfg)

		if err := os.MkdirAll(exportOut, 0o755); err != nil {
			return fmt.Errorf("mkdir output dir: %w", err)
		}

		for _, group := range sum.GroupsWithEnv(snap) {
			b, err := export.EnvironmentCSV(snap.Env[group])
			if err != nil {
				return err
			}
			path := filepath.Join(exportOut, fmt.Sprintf("%s_환경데이터.csv", group))
			if err := export.WriteFile(path, b); err != nil {
				return err
			}
			fmt.Printf("✓ %s\n", path)
		}

		groups := make([]string, 0, len(sum.Growth))
		for _, row := range sum.Growth {
			if _, ok := snap.Growth[row.Group]; ok {
				groups = append(groups, row.Group)
			}
		}
		b, err := export.GrowthWorkbook(cfg, groups, snap.Growth, sum.LongForm)
		if err != nil {
			return err
		}
		path := filepath.Join(exportOut, "생육결과데이터.xlsx")
		if err := export.WriteFile(path, b); err != nil {
			return err
		}
		fmt.Printf("✓ %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "export", "output directory")
	rootCmd.AddCommand(exportCmd)
}
