package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Refresh all configured repository indices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := newContext(false)
			if err != nil {
				return err
			}
			lock, err := c.AcquireLock()
			if err != nil {
				return err
			}

			failed, err := c.Update(ctx)
			lock.Release()
			if err != nil {
				return err
			}
			if failed > 0 {
				fmt.Fprintf(os.Stderr, "%d source(s) failed to update\n", failed)
				os.Exit(failed)
			}
			return nil
		},
	}
}
