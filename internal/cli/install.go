package cli

import (
	"context"

	"github.com/spf13/cobra"

	"opkg/internal/app"
	"opkg/internal/policies"
)

func newInstallCommand() *cobra.Command {
	flags := policies.CLIFlags{}
	var downloadOnly bool
	var offline bool
	cmd := &cobra.Command{
		Use:   "install <pkgs>",
		Short: "Install packages, satisfying dependencies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), args, flags, downloadOnly, offline)
		},
	}
	addTransactionFlags(cmd, &flags)
	cmd.Flags().BoolVar(&downloadOnly, "download-only", false, "Fetch and verify packages but do not unpack or configure them")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the final filesystem sync (offline_root mode)")
	return cmd
}

func runInstall(ctx context.Context, names []string, flags policies.CLIFlags, downloadOnly, offline bool) error {
	return withMutatingContext(ctx, func(c *app.Context) error {
		result, err := c.Install(ctx, names, transactionOptions(flags, interactive(), downloadOnly, offline))
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	})
}

func newDownloadCommand() *cobra.Command {
	flags := policies.CLIFlags{}
	cmd := &cobra.Command{
		Use:   "download <pkgs>",
		Short: "Fetch and verify packages into the cache without installing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMutatingContext(cmd.Context(), func(c *app.Context) error {
				_, err := c.Download(cmd.Context(), args, transactionOptions(flags, interactive(), true, false))
				return err
			})
		},
	}
	addTransactionFlags(cmd, &flags)
	return cmd
}
