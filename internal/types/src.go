package types

// Src is a configured repository source: either a flat source (name +
// base URL serving Packages directly) or a distribution source (name +
// base URL + component list + optional signature key) that expands into
// one flat source per (component, architecture).
type Src struct {
	Name           string
	BaseURL        string
	Distribution   string   // non-empty marks this a distribution source
	Components     []string
	SignatureKey   string
	RequireSigning bool
}

// IsDistribution reports whether this source expands into per-component
// flat sources.
func (s Src) IsDistribution() bool {
	return s.Distribution != ""
}

// FlatSource is a single (component, architecture) resolved fetch target
// produced by expanding a distribution Src.
type FlatSource struct {
	Name      string
	BaseURL   string
	Component string
	Arch      string
}

// ArchEntry is one row of the architecture table: a name and priority.
type ArchEntry struct {
	Name     string
	Priority int
}

// ArchTable is the ordered list of supported architectures, sorted by
// priority ascending (highest-priority entry last).
type ArchTable []ArchEntry

// Contains reports whether arch is present in the table.
func (t ArchTable) Contains(arch string) bool {
	for _, e := range t {
		if e.Name == arch {
			return true
		}
	}
	return false
}

// PriorityOf returns the configured priority for arch, or -1 if the
// architecture is not in the table.
func (t ArchTable) PriorityOf(arch string) int {
	for _, e := range t {
		if e.Name == arch {
			return e.Priority
		}
	}
	return -1
}
