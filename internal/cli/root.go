// Package cli wires the folio command line: the API server and offline
// rendering tools.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "folio",
		Short:         "Portfolio content API and document tools.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		serveCmd(),
		renderCmd(),
		tocCmd(),
		hashPasswordCmd(),
	)
	return cmd
}
