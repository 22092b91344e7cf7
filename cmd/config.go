package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-narration-tuner/internal/config"
	"github.com/kartoza/kartoza-narration-tuner/internal/report"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after applying the config file and environment overrides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return report.WriteJSON(os.Stdout, cfg)
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.GetConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to replace it)", path)
		}

		defaults := config.DefaultConfig()
		if err := config.SaveTo(&defaults, path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Replace an existing config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
