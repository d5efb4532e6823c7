package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vbonduro/dishcarbon/internal/logging"
	"github.com/vbonduro/dishcarbon/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.LogFile == "" {
				// stderr belongs to the terminal UI.
				a.logger = logging.Discard()
			}
			return tui.Run(cmd.Context(), a.client())
		},
	}
}
