package core

import (
	"fmt"

	"opkg/internal/types"
)

// successMark and failMark annotate solver trace output, one line per
// job item attempted, so a verbose run reads like a checklist.
const (
	successMark = "✓"
	failMark    = "✗"
)

// Tracer accumulates human-readable solver trace lines for verbose
// output or troubleshooting; nil-safe so callers can pass a nil
// *Tracer when tracing is disabled.
type Tracer struct {
	lines []string
}

// NewTracer returns an empty tracer.
func NewTracer() *Tracer { return &Tracer{} }

// Ok records a satisfied step.
func (t *Tracer) Ok(format string, args ...any) {
	if t == nil {
		return
	}
	t.lines = append(t.lines, successMark+" "+fmt.Sprintf(format, args...))
}

// Fail records an unsatisfied step.
func (t *Tracer) Fail(format string, args ...any) {
	if t == nil {
		return
	}
	t.lines = append(t.lines, failMark+" "+fmt.Sprintf(format, args...))
}

// Lines returns the accumulated trace, in order.
func (t *Tracer) Lines() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.lines...)
}

// ProblemUnsatisfiable reports that no candidate in the pool satisfies
// atom. Its only solution is to drop the requesting job item.
func ProblemUnsatisfiable(requester string, atom types.Constraint) types.Problem {
	desc := fmt.Sprintf("no package satisfies %s's dependency on %s", requester, formatAtom(atom))
	return types.Problem{
		Description: desc,
		Solutions: []types.ProblemSolution{{
			Description: fmt.Sprintf("do not install %s", requester),
			Apply: func(job *types.Job) {
				removeSelector(job, requester)
			},
		}},
	}
}

// ProblemConflict reports that two candidates selected for
// installation conflict with one another. Solutions offer removing
// either side of the conflict from the job.
func ProblemConflict(a, b types.Solvable) types.Problem {
	desc := fmt.Sprintf("%s conflicts with %s", a.Name, b.Name)
	return types.Problem{
		Description: desc,
		Solutions: []types.ProblemSolution{
			{
				Description: fmt.Sprintf("do not install %s", a.Name),
				Apply:       func(job *types.Job) { removeSelector(job, a.Name) },
			},
			{
				Description: fmt.Sprintf("do not install %s", b.Name),
				Apply:       func(job *types.Job) { removeSelector(job, b.Name) },
			},
		},
	}
}

// ProblemEssentialRemoval reports an attempt to remove a package
// marked Essential without ForceRemovalOfEssential set.
func ProblemEssentialRemoval(sv types.Solvable) types.Problem {
	return types.Problem{
		Description: fmt.Sprintf("%s is essential and cannot be removed without forcing", sv.Name),
		Solutions: []types.ProblemSolution{{
			Description: fmt.Sprintf("keep %s installed", sv.Name),
			Apply:       func(job *types.Job) { removeSelector(job, sv.Name) },
		}},
	}
}

// ProblemHeld reports that a job targets a package whose installed
// state carries the "hold" flag.
func ProblemHeld(sv types.Solvable) types.Problem {
	return types.Problem{
		Description: fmt.Sprintf("%s is held and will not be changed", sv.Name),
		Solutions: []types.ProblemSolution{{
			Description: fmt.Sprintf("skip %s", sv.Name),
			Apply:       func(job *types.Job) { removeSelector(job, sv.Name) },
		}},
	}
}

func removeSelector(job *types.Job, name string) {
	filtered := job.Items[:0]
	for _, item := range job.Items {
		if item.Selector.Raw == name {
			continue
		}
		filtered = append(filtered, item)
	}
	job.Items = filtered
}

func formatAtom(atom types.Constraint) string {
	if atom.Op == types.ConstraintOpNone {
		return atom.Name
	}
	return fmt.Sprintf("%s (%s %s)", atom.Name, atom.Op, atom.Version)
}
