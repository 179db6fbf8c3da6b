// Package policies applies configuration-driven restrictions to the
// job and the pool before the resolver ever sees them: the exclude
// list, hold enforcement, and the flag set that tunes how aggressive
// the solver is allowed to be.
package policies

import "strings"

// ExcludePolicy matches package names against a configured exclude
// list. A pattern is an exact name, a prefix ending in "*", or the
// bare wildcard "*" matching everything. The first matching pattern
// wins; patterns are otherwise unordered with respect to each other.
type ExcludePolicy struct {
	exact    map[string]struct{}
	prefixes []string
	all      bool
}

// NewExcludePolicy compiles a list of raw exclude patterns.
func NewExcludePolicy(patterns []string) ExcludePolicy {
	policy := ExcludePolicy{exact: map[string]struct{}{}}
	for _, raw := range patterns {
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			continue
		}
		if pattern == "*" {
			policy.all = true
			continue
		}
		if strings.HasSuffix(pattern, "*") {
			policy.prefixes = append(policy.prefixes, strings.TrimSuffix(pattern, "*"))
			continue
		}
		policy.exact[pattern] = struct{}{}
	}
	return policy
}

// Excluded reports whether name matches the exclude list and must be
// dropped from the pool's considered set before resolution.
func (p ExcludePolicy) Excluded(name string) bool {
	if p.all {
		return true
	}
	if _, ok := p.exact[name]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
