package ports

import "opkg/internal/types"

// UI is the interactive front-end the transaction engine talks to
// when a Problem needs a human decision or a transaction needs
// confirmation before it is applied. A non-interactive (batch) mode
// implementation answers every Confirm with the supplied default and
// fails every ChooseSolution with an error.
type UI interface {
	Confirm(prompt string, defaultYes bool) (bool, error)
	ChooseSolution(problem types.Problem) (types.ProblemSolution, error)
	Printf(format string, args ...any)
	Warnf(format string, args ...any)
}
