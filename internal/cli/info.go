package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"opkg/internal/app"
	"opkg/internal/query"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <pkg>",
		Short: "Print the full control record for a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryContext(cmd.Context(), func(c *app.Context) error {
				svs, err := c.Query().Info(args[0])
				if err != nil {
					return err
				}
				for _, sv := range svs {
					fmt.Print(query.FormatInfo(sv))
					fmt.Println()
				}
				return nil
			})
		},
	}
}

func newFilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "files <pkg>",
		Short: "List the files owned by a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryContext(cmd.Context(), func(c *app.Context) error {
				paths, err := c.Query().Files(args[0], c.Cache, c.Archive)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Println(p)
				}
				return nil
			})
		},
	}
}

func newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <glob>",
		Short: "Find the installed package owning files matching a glob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryContext(cmd.Context(), func(c *app.Context) error {
				matches, err := c.Query().Search(args[0])
				if err != nil {
					return err
				}
				for name, paths := range matches {
					for _, p := range paths {
						fmt.Printf("%s: %s\n", name, p)
					}
				}
				return nil
			})
		},
	}
}
