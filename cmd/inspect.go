package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/greenplot/ecdash/internal/dataset"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file...]",
	Short: "Scan the data directory and show what the locator found",
	Long: `Scan the data directory and show what the locator found.

With file name arguments, resolve each name against the data directory
instead. Names are compared Unicode-normalized, so a name typed composed
still finds a file saved decomposed on macOS.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return resolveNames(cfg.DataDir, args)
		}
		layout, err := dataset.Scan(cfg.DataDir)
		if err != nil {
			return err
		}
		fmt.Printf("Data directory: %s\n\n", cfg.DataDir)
		fmt.Println("Environment files:")
		for _, group := range layout.Groups() {
			fi := layout.EnvFiles[group]
			fmt.Printf("  %s\t%s (%d bytes)\n", group, fi.Path, fi.Size)
		}
		fmt.Printf("\nGrowth workbook: %s\n", layout.Workbook.Path)

		snap, err := dataset.NewStore(cfg.DataDir).Load(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println("\nWorkbook sheets:")
		for _, group := range layout.Groups() {
			if t, ok := snap.Growth[group]; ok {
				fmt.Printf("  %s\t%d specimens\n", group, t.Len())
			} else {
				fmt.Printf("  %s\tno sheet\n", group)
			}
		}
		for _, w := range layout.Warnings {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
		}
		return nil
	},
}

func resolveNames(dir string, names []string) error {
	for _, name := range names {
		actual, ok, err := dataset.FindEntry(dir, name)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("%s\tnot found\n", name)
			continue
		}
		fmt.Printf("%s\t%s\n", name, filepath.Join(dir, actual))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
