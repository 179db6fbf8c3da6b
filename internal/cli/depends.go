package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"opkg/internal/app"
	"opkg/internal/query"
	"opkg/internal/types"
)

func newDependsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "depends <pkg>",
		Short: "List the forward dependencies declared by a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryContext(cmd.Context(), func(c *app.Context) error {
				atoms, err := c.Query().Depends(args[0])
				if err != nil {
					return err
				}
				for _, atom := range atoms {
					fmt.Println(formatConstraint(atom))
				}
				return nil
			})
		},
	}
}

func formatConstraint(c types.Constraint) string {
	if c.Op == types.ConstraintOpNone {
		return c.Name
	}
	return fmt.Sprintf("%s (%s %s)", c.Name, c.Op, c.Version)
}

func printSolvables(svs []types.Solvable) {
	for _, sv := range svs {
		fmt.Printf("%s - %s\n", sv.Name, sv.Version())
	}
}

// newReverseDependsCommands builds the whatdepends/whatdependsrec/
// whatrecommends/whatsuggests/whatconflicts/whatreplaces/whatprovides
// family (spec §6), each a thin read-only lookup over query.Facade.
func newReverseDependsCommands() []*cobra.Command {
	return []*cobra.Command{
		reverseCommand("whatdepends", "List packages that directly depend on a package", func(f query.Facade, name string) ([]types.Solvable, error) {
			return f.WhatDepends(name, false), nil
		}),
		reverseCommand("whatdependsrec", "List packages that transitively depend on a package", func(f query.Facade, name string) ([]types.Solvable, error) {
			return f.WhatDepends(name, true), nil
		}),
		reverseCommand("whatrecommends", "List packages that recommend a package", func(f query.Facade, name string) ([]types.Solvable, error) {
			return f.WhatRecommends(name), nil
		}),
		reverseCommand("whatsuggests", "List packages that suggest a package", func(f query.Facade, name string) ([]types.Solvable, error) {
			return f.WhatSuggests(name), nil
		}),
		reverseCommand("whatconflicts", "List packages that conflict with a package", func(f query.Facade, name string) ([]types.Solvable, error) {
			return f.WhatConflicts(name), nil
		}),
		reverseCommand("whatreplaces", "List packages that replace a package", func(f query.Facade, name string) ([]types.Solvable, error) {
			return f.WhatReplaces(name), nil
		}),
		reverseCommand("whatprovides", "List packages that provide a package name", func(f query.Facade, name string) ([]types.Solvable, error) {
			return f.WhatProvides(name)
		}),
	}
}

func reverseCommand(use, short string, lookup func(query.Facade, string) ([]types.Solvable, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <pkg>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueryContext(cmd.Context(), func(c *app.Context) error {
				svs, err := lookup(c.Query(), args[0])
				if err != nil {
					return err
				}
				printSolvables(svs)
				return nil
			})
		},
	}
}
