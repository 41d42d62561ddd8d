package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/svcreg/internal/service"
)

var findExact bool

var findCmd = &cobra.Command{
	Use:   "find <identifier>",
	Short: "Find the definition matching a service identifier",
	Long: `Find the service definition matching an identifier.

A numeric identifier is looked up by id. Anything else is matched
against each definition's pattern in evaluation order; --exact compares
the definition name literally instead.

Examples:
  # Match a service URL against the registered patterns
  svcreg find 'https://sso.example.org/login'

  # Look up by id
  svcreg find 1700000000000

  # Exact name lookup
  svcreg find shibboleth --exact`,
	Args: cobra.ExactArgs(1),
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

		reg.Load()

		identifier := args[0]
		var def service.Definition
		if findExact {
			def = reg.FindByExactName(identifier)
		} else if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
			def = reg.FindByID(id)
		} else {
			def = reg.FindByName(identifier)
		}

		if def == nil {
			return fmt.Errorf("no definition matches %q", identifier)
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(def)
	},
}

func init() {
	findCmd.Flags().BoolVar(&findExact, "exact", false, "match the definition name literally")
	rootCmd.AddCommand(findCmd)
}
