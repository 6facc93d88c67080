package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	runRoot    string
	outputJSON bool
)

// Execute runs the root cobra command. Interrupt and termination signals
// cancel the command context so in-flight ffmpeg work is killed rather than
// orphaned.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dancevid",
		Short: "Beat-synchronized dance video compiler",
	}

	cmd.PersistentFlags().StringVar(&runRoot, "run-root", "", "Path to the run directory")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newBeatsCmd())
	cmd.AddCommand(newCompileCmd())

	return cmd
}
