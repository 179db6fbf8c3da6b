// Package core implements the version & dependency algebra and the
// pool/solver logic that sit at the heart of the transaction engine.
package core

import (
	"fmt"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	debversion "github.com/knqyf263/go-deb-version"

	"opkg/internal/types"
)

// versionCache memoizes parsed Debian versions so that repeated
// constraint evaluation and candidate sorting avoid re-parsing the same
// version string.
type versionCache struct {
	parsed map[string]debversion.Version
}

func newVersionCache() *versionCache {
	return &versionCache{parsed: map[string]debversion.Version{}}
}

func (c *versionCache) parse(value string) (debversion.Version, error) {
	if v, ok := c.parsed[value]; ok {
		return v, nil
	}
	v, err := debversion.NewVersion(value)
	if err != nil {
		return debversion.Version{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version %q", value)).
			WithCause(err)
	}
	c.parsed[value] = v
	return v, nil
}

// Compare returns -1, 0 or 1 comparing two Debian version strings
// (epoch, upstream, revision segments). Returns an error if either
// string fails to parse.
func Compare(a, b string) (int, error) {
	cache := newVersionCache()
	va, err := cache.parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := cache.parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// satisfiesOp evaluates version against a single constraint using
// Debian ordering semantics. op == ConstraintOpNone always matches.
func satisfiesOp(cache *versionCache, version string, op types.ConstraintOp, required string) (bool, error) {
	if op == types.ConstraintOpNone {
		return true, nil
	}
	v, err := cache.parse(version)
	if err != nil {
		return false, err
	}
	r, err := cache.parse(required)
	if err != nil {
		return false, err
	}
	switch op {
	case types.ConstraintOpEq:
		return v.Equal(r), nil
	case types.ConstraintOpGte:
		return v.Equal(r) || v.GreaterThan(r), nil
	case types.ConstraintOpLte:
		return v.Equal(r) || v.LessThan(r), nil
	case types.ConstraintOpGt:
		return v.GreaterThan(r), nil
	case types.ConstraintOpLt:
		return v.LessThan(r), nil
	default:
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported constraint operator %q", op))
	}
}

// SortVersionsDescending sorts version strings from highest to lowest
// using Debian ordering. Unparseable entries sort last, in lexical
// order among themselves, so a malformed index entry never panics the
// caller.
func SortVersionsDescending(versions []string) []string {
	cache := newVersionCache()
	ordered := append([]string(nil), versions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		vi, erri := cache.parse(ordered[i])
		vj, errj := cache.parse(ordered[j])
		if erri != nil || errj != nil {
			if erri == nil {
				return true
			}
			if errj == nil {
				return false
			}
			return ordered[i] < ordered[j]
		}
		return vi.GreaterThan(vj)
	})
	return ordered
}
