package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/svcreg/internal/service"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered service definitions",
	Long: `List all service definitions under the registry root as JSON.

Definitions are loaded from disk in sorted order, so the output reflects
exactly what a running registry would serve.

Examples:
  # List all definitions
  svcreg list

  # Pick out names with jq
  svcreg list | jq '.[].name'

  # List from a different root
  svcreg list --root /srv/definitions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanupLog, err := initLogging()
		if err != nil {
			return err
		}
		defer cleanupLog()

		reg, cleanup, err := openRegistry()
		if err != nil {
			return err
		}
		defer cleanup()

		defs := reg.Load()
		if defs == nil {
			defs = []service.Definition{}
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(defs)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
