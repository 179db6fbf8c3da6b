package cli

import (
	"github.com/spf13/cobra"

	"opkg/internal/app"
)

func newFlagCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flag <flag> <pkgs>",
		Short: "Set a status flag (hold, noprune, user, ok, installed, unpacked) on installed packages",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMutatingContext(cmd.Context(), func(c *app.Context) error {
				return c.Flag(args[0], args[1:])
			})
		},
	}
}
