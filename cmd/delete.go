package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a service definition",
	Long: `Delete a service definition by id.

Removes both the backing file and the registry entry. Deleting an id
whose file is already gone still succeeds.

Examples:
  svcreg delete 1700000000000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanupLog, err := initLogging()
		if err != nil {
			return err
		}
		defer cleanupLog()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[0], err)
		}

		reg, cleanup, err := openRegistry()
		if err != nil {
			return err
		}
		defer cleanup()

		reg.Load()

		def := reg.FindByID(id)
		if def == nil {
			return fmt.Errorf("no definition with id %d", id)
		}

		if !reg.Delete(def) {
			return fmt.Errorf("deleting definition %d", id)
		}

		fmt.Printf("Deleted %s (%d)\n", def.Name(), def.ID())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
