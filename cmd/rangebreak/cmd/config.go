package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradelab/rangebreak/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write a default config file to get started",
	Long: `Write the default configuration to a file for editing.

Example:
  rangebreak config --out config.yaml`,
	RunE: runConfig,
}

var configOut string

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVarP(&configOut, "out", "o", "config.yaml", "output path (.yaml, .yml or .json)")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.Default().SaveToFile(configOut); err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", configOut)
	return nil
}
