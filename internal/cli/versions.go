package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"opkg/internal/app"
	"opkg/internal/types"
)

func newCompareVersionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare-versions <v1> <op> <v2>",
		Short: "Compare two Debian version strings (op one of = >= <= >> <<); exits 0 if true, 1 if false",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			ok, err := app.CompareVersions(args[0], types.ConstraintOp(args[1]), args[2])
			if err != nil {
				return err
			}
			if !ok {
				os.Exit(1)
			}
			return nil
		},
	}
}

func newPrintArchitectureCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print-architecture",
		Short: "Print the configured architecture table, priority ascending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueryContext(cmd.Context(), func(c *app.Context) error {
				for _, entry := range c.PrintArchitecture() {
					fmt.Printf("arch %s %d\n", entry.Name, entry.Priority)
				}
				return nil
			})
		},
	}
}

func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Purge the download cache",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := newContext(false)
			if err != nil {
				return err
			}
			lock, err := c.AcquireLock()
			if err != nil {
				return err
			}
			defer lock.Release()
			return c.Clean()
		},
	}
}
