package adapters

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"opkg/internal/ports"
	"opkg/internal/types"
)

// BatchUI is the non-interactive front-end: every confirmation
// answers with its default, and an unresolved Problem is always a
// failure rather than a prompt, per spec §4.6 "in batch mode the
// solver reports all solutions and returns failure without mutating
// state".
type BatchUI struct{}

// NewBatchUI returns a BatchUI.
func NewBatchUI() BatchUI { return BatchUI{} }

// Confirm answers every confirmation with defaultYes.
func (BatchUI) Confirm(_ string, defaultYes bool) (bool, error) { return defaultYes, nil }

// ChooseSolution always fails: batch mode never picks a solution on
// the caller's behalf.
func (BatchUI) ChooseSolution(problem types.Problem) (types.ProblemSolution, error) {
	return types.ProblemSolution{}, errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("batch mode: " + problem.Description)
}

// Printf writes to stdout.
func (BatchUI) Printf(format string, args ...any) { fmt.Printf(format, args...) }

// Warnf writes a colorized warning to stderr.
func (BatchUI) Warnf(format string, args ...any) {
	fmt.Fprint(os.Stderr, color.YellowString(format, args...))
}

var _ ports.UI = BatchUI{}
