package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"opkg/internal/app"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [glob]",
		Short: "List all available packages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			return withQueryContext(cmd.Context(), func(c *app.Context) error {
				svs, err := c.Query().List(pattern)
				if err != nil {
					return err
				}
				for _, sv := range svs {
					fmt.Printf("%s - %s\n", sv.Name, sv.Version())
				}
				return nil
			})
		},
	}
}

func newListInstalledCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-installed [glob]",
		Short: "List all installed packages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			return withQueryContext(cmd.Context(), func(c *app.Context) error {
				svs, err := c.Query().ListInstalled(pattern)
				if err != nil {
					return err
				}
				for _, sv := range svs {
					fmt.Printf("%s - %s\n", sv.Name, sv.Version())
				}
				return nil
			})
		},
	}
}

func newListUpgradableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-upgradable",
		Short: "List installed packages with a newer candidate available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueryContext(cmd.Context(), func(c *app.Context) error {
				rows, err := c.Query().ListUpgradable()
				if err != nil {
					return err
				}
				for _, row := range rows {
					fmt.Printf("%s - %s - %s\n", row.Name, row.Installed, row.Candidate)
				}
				return nil
			})
		},
	}
}
