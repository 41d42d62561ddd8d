package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/svcreg/internal/pubsub"
	"github.com/zjrosen/svcreg/internal/registry"
	"github.com/zjrosen/svcreg/internal/service"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the registry and follow directory changes",
	Long: `Run the registry in the foreground, watching the root directory.

External file edits are reconciled into the registry as they happen and
every change is printed as an event line. Replication and tracing from
the config apply here too, so this doubles as the long-running daemon
mode for multi-node setups.

Example:
  svcreg watch --root /srv/definitions`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	cleanupLog, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanupLog()

	reg, cleanup, err := openRegistry(registry.WithWatch())
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := reg.Events().Subscribe(ctx)
	go func() {
		for event := range events {
			printEvent(event)
		}
	}()

	defs := reg.Load()
	fmt.Printf("Watching %s (%d definitions)\n", cfg.Registry.Root, len(defs))
	fmt.Println("Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	fmt.Printf("\nReceived %s, shutting down...\n", sig)
	return nil
}

func printEvent(event pubsub.Event[service.Definition]) {
	def := event.Payload
	if def == nil {
		return
	}
	switch event.Type {
	case pubsub.LoadedEvent:
		fmt.Printf("loaded   %s (%d)\n", def.Name(), def.ID())
	case pubsub.PreDeleteEvent:
		fmt.Printf("deleting %s (%d)\n", def.Name(), def.ID())
	case pubsub.DeletedEvent:
		fmt.Printf("deleted  %s (%d)\n", def.Name(), def.ID())
	}
}
