package app

import (
	"github.com/ZanzyTHEbar/errbuilder-go"

	"opkg/internal/core"
	"opkg/internal/types"
)

// CompareVersions implements "compare-versions <v1> <op> <v2>" (spec
// §6): true/false per the Debian version relation, surfaced by the
// CLI as exit code 0/1 rather than a printed result.
func CompareVersions(v1 string, op types.ConstraintOp, v2 string) (bool, error) {
	cmp, err := core.Compare(v1, v2)
	if err != nil {
		return false, err
	}
	switch op {
	case types.ConstraintOpEq:
		return cmp == 0, nil
	case types.ConstraintOpGte:
		return cmp >= 0, nil
	case types.ConstraintOpLte:
		return cmp <= 0, nil
	case types.ConstraintOpGt:
		return cmp > 0, nil
	case types.ConstraintOpLt:
		return cmp < 0, nil
	default:
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown comparison operator: " + string(op))
	}
}

// PrintArchitecture returns the configured architecture table (spec
// §6 "print-architecture"), already sorted priority-ascending as the
// Config loader produces it.
func (c *Context) PrintArchitecture() types.ArchTable {
	return c.Config.Archs
}
