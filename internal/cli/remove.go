package cli

import (
	"github.com/spf13/cobra"

	"opkg/internal/app"
	"opkg/internal/policies"
)

func newRemoveCommand() *cobra.Command {
	flags := policies.CLIFlags{}
	var offline bool
	cmd := &cobra.Command{
		Use:   "remove <pkgs>",
		Short: "Remove installed packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMutatingContext(cmd.Context(), func(c *app.Context) error {
				result, err := c.Remove(cmd.Context(), args, transactionOptions(flags, interactive(), false, offline))
				if err != nil {
					return err
				}
				printResult(result)
				return nil
			})
		},
	}
	addTransactionFlags(cmd, &flags)
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the final filesystem sync (offline_root mode)")
	return cmd
}
