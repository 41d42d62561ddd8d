package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/svcreg/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long: `Create a commented default config at .svcreg/config.yaml.

When --root or --format are given, the registry section is written with
those values instead of the defaults.

Examples:
  svcreg init
  svcreg init --root /srv/definitions --format yaml
  svcreg init --config /etc/svcreg/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanupLog, err := initLogging()
		if err != nil {
			return err
		}
		defer cleanupLog()

		configPath := cfgFile
		if configPath == "" {
			configPath = ".svcreg/config.yaml"
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config already exists at %s", configPath)
		}

		if err := config.WriteDefaultConfig(configPath); err != nil {
			return err
		}

		// Persist any registry overrides from the flags.
		if cmd.Flags().Changed("root") || cmd.Flags().Changed("format") {
			if err := config.SaveRegistry(configPath, cfg.Registry); err != nil {
				return err
			}
		}

		fmt.Printf("Created %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
