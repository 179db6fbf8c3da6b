package cli

import (
	"github.com/spf13/cobra"

	"opkg/internal/app"
	"opkg/internal/policies"
)

// addTransactionFlags registers the resolver-aggressiveness switches
// shared by every job-producing command (install, remove, upgrade,
// dist-upgrade, download) directly onto flags; these are run-mode
// switches, not persisted configuration, so they bind to plain
// variables rather than viper.
func addTransactionFlags(cmd *cobra.Command, flags *policies.CLIFlags) {
	cmd.Flags().BoolVar(&flags.NoDepends, "nodeps", false, "Do not check dependencies before install/remove")
	cmd.Flags().BoolVar(&flags.Autoremove, "autoremove", false, "Remove packages that were only installed as dependencies and are no longer needed")
	cmd.Flags().BoolVar(&flags.ForceReinstall, "force-reinstall", false, "Allow reinstalling an already-installed version")
	cmd.Flags().BoolVar(&flags.ForceDowngrade, "force-downgrade", false, "Allow installing an older version than what is installed")
	cmd.Flags().BoolVar(&flags.ForceBest, "force-best", false, "Always prefer the newest available candidate")
	cmd.Flags().BoolVar(&flags.ForceRemoveEssential, "force-removal-of-essential-packages", false, "Allow removing packages flagged Essential")
	cmd.Flags().BoolVar(&flags.IgnoreHold, "force-hold", false, "Allow changing packages flagged hold")
	cmd.Flags().BoolVar(&flags.NoRecommends, "no-install-recommends", false, "Do not promote Recommends into hard dependencies")
}

// transactionOptions builds the app.TransactionOptions for a job
// command from its resolver flags and the root's --interactive and
// command-local --download-only switches.
func transactionOptions(flags policies.CLIFlags, interactive, downloadOnly, offline bool) app.TransactionOptions {
	return app.TransactionOptions{
		CLIFlags:     flags,
		Interactive:  interactive,
		DownloadOnly: downloadOnly,
		Offline:      offline,
	}
}
