package types

// Selector identifies one or more solvables a job item applies to: a
// bare package name, a glob pattern, a local file path, or a remote URL.
type Selector struct {
	Raw string
}

// JobItem is a single (operation, selector) pair. Multiple operations on
// the same selector are OR-combined by the resolver's job rewriting step.
type JobItem struct {
	Ops      []Operation
	Selector Selector
}

// Job is the full set of requested operations handed to the resolver.
type Job struct {
	Items []JobItem
}

// Add appends a job item for a single selector string and operation.
func (j *Job) Add(op Operation, selector string) {
	j.Items = append(j.Items, JobItem{Ops: []Operation{op}, Selector: Selector{Raw: selector}})
}
