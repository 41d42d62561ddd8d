package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/svcreg/internal/service"
)

var (
	saveID          int64
	saveDescription string
	saveEvalOrder   int
)

var saveCmd = &cobra.Command{
	Use:   "save <name> <pattern>",
	Short: "Save a service definition",
	Long: `Save a service definition to the registry root.

Without --id a new id is assigned. Saving with an existing id overwrites
that definition.

Examples:
  # Register a new service
  svcreg save shibboleth 'https://sso\.example\.org/.*'

  # Update an existing definition
  svcreg save shibboleth 'https://sso\.example\.org/.*' --id 1700000000000 \
    --description "Campus SSO" --eval-order 10`,
	Args: cobra.ExactArgs(2),
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

		def := service.NewRegexDefinition(args[0], args[1])
		def.Description = saveDescription
		def.EvaluationOrder = saveEvalOrder
		if cmd.Flags().Changed("id") {
			def.SetID(saveID)
		}

		saved, err := reg.Save(def)
		if err != nil {
			return fmt.Errorf("saving definition: %w", err)
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(saved)
	},
}

func init() {
	saveCmd.Flags().Int64Var(&saveID, "id", 0, "definition id (omit to assign a new one)")
	saveCmd.Flags().StringVar(&saveDescription, "description", "", "human-readable description")
	saveCmd.Flags().IntVar(&saveEvalOrder, "eval-order", 0, "evaluation order (lower matches first)")
	rootCmd.AddCommand(saveCmd)
}
