package adapters

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"opkg/internal/ports"
	"opkg/internal/types"
)

// InteractiveUI drives confirmations and problem resolution through a
// terminal prompt, for runs where a human is present to decide.
type InteractiveUI struct{}

// NewInteractiveUI returns an InteractiveUI.
func NewInteractiveUI() InteractiveUI { return InteractiveUI{} }

// Confirm prompts prompt/[Y/n] (or [y/N]) and returns the answer.
func (InteractiveUI) Confirm(prompt string, defaultYes bool) (bool, error) {
	answer := defaultYes
	q := &survey.Confirm{Message: prompt, Default: defaultYes}
	if err := survey.AskOne(q, &answer); err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeAborted).
			WithMsg("confirmation prompt failed").
			WithCause(err)
	}
	return answer, nil
}

// ChooseSolution presents every candidate solution plus a "skip this
// problem" option, matching opkg_solv.c's per-solution interactive
// loop (spec §9 design notes): the user can pick a numbered fix or
// decline to fix this problem at all. Ctrl-C / quitting the prompt
// surfaces as an Aborted error, which the caller treats like spec
// §7's Interrupted handling.
func (InteractiveUI) ChooseSolution(problem types.Problem) (types.ProblemSolution, error) {
	labels := make([]string, 0, len(problem.Solutions)+1)
	for _, sol := range problem.Solutions {
		labels = append(labels, sol.Description)
	}
	labels = append(labels, "skip (leave this problem unresolved)")

	choice := ""
	q := &survey.Select{
		Message: problem.Description,
		Options: labels,
	}
	if err := survey.AskOne(q, &choice); err != nil {
		return types.ProblemSolution{}, errbuilder.New().
			WithCode(errbuilder.CodeAborted).
			WithMsg("problem resolution prompt failed").
			WithCause(err)
	}
	for i, label := range labels {
		if label != choice {
			continue
		}
		if i == len(problem.Solutions) {
			return types.ProblemSolution{Description: "skipped", Apply: func(*types.Job) {}}, nil
		}
		return problem.Solutions[i], nil
	}
	return types.ProblemSolution{}, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("unreachable: selected option not found")
}

// Printf writes to stdout.
func (InteractiveUI) Printf(format string, args ...any) { fmt.Printf(format, args...) }

// Warnf writes a colorized warning to stderr.
func (InteractiveUI) Warnf(format string, args ...any) {
	fmt.Fprint(os.Stderr, color.YellowString(format, args...))
}

var _ ports.UI = InteractiveUI{}
