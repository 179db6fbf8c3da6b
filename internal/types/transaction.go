package types

// Step is one ordered action in a Transaction: install a new solvable,
// erase an installed one, or replace an installed one with a new
// version (upgraded/downgraded/reinstalled/changed all carry the
// obsoleted solvable's ID so the executor can check the old package's
// conffiles for local edits).
type Step struct {
	Kind        StepKind
	SolvableID  int
	ObsoletedID int // 0 when not applicable
}

// Transaction is the ordered sequence of steps the resolver produced for
// a job, ready for the executor to apply.
type Transaction struct {
	Steps []Step
}

// ProblemSolution is one way to resolve a Problem: a human-readable
// description and the job mutation it would apply if chosen.
type ProblemSolution struct {
	Description string
	// Apply, when invoked by the caller that owns the job, mutates it in
	// place to reflect this solution (e.g. adds an erase for a
	// conflicting package, or drops the offending job item).
	Apply func(job *Job)
}

// Problem is one unsatisfiable requirement the resolver found, together
// with the candidate fixes it was able to enumerate.
type Problem struct {
	Description string
	Solutions   []ProblemSolution
}
