package cli

import (
	"github.com/spf13/cobra"

	"opkg/internal/app"
	"opkg/internal/policies"
)

func newUpgradeCommand() *cobra.Command {
	flags := policies.CLIFlags{}
	var offline bool
	cmd := &cobra.Command{
		Use:   "upgrade [pkgs]",
		Short: "Upgrade packages (all installed packages if none named)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMutatingContext(cmd.Context(), func(c *app.Context) error {
				result, err := c.Upgrade(cmd.Context(), args, transactionOptions(flags, interactive(), false, offline))
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

func newDistUpgradeCommand() *cobra.Command {
	flags := policies.CLIFlags{}
	var offline bool
	cmd := &cobra.Command{
		Use:   "dist-upgrade",
		Short: "Upgrade the whole system, allowing packages to be added or removed as dependencies change shape",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMutatingContext(cmd.Context(), func(c *app.Context) error {
				result, err := c.DistUpgrade(cmd.Context(), transactionOptions(flags, interactive(), false, offline))
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
