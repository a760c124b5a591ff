package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/greenplot/ecdash/internal/config"
)

var configInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configInit {
			if err := cfgpkg.Save(cfg, cfgFile); err != nil {
				return err
			}
			fmt.Println("✓ Configuration written")
			return nil
		}
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Print(string(b))
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "write the effective configuration to the config file")
	rootCmd.AddCommand(configCmd)
}
