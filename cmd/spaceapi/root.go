package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Running without a subcommand serves.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spaceapi",
		Short: "SpaceAPI status server",
		Long: `spaceapi serves the SpaceAPI status document of a hackerspace and
accepts signed sensor updates from trusted agents.

Configuration is read from --config, SPACEAPI_CONFIG or configs/config.yaml,
in that order.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	serve := newServeCmd()
	root.AddCommand(serve, newSignCmd(), newVersionCmd())

	// Bare "spaceapi" behaves like "spaceapi serve".
	root.Flags().AddFlagSet(serve.Flags())
	root.RunE = serve.RunE

	return root
}
