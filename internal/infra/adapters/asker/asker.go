// asker implements the ports.ForAsking interface.
package asker

import (
	"context"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/sa6mwa/addepisode/internal/app/ports"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
	"golang.org/x/term"
)

type forAsking struct {
	dryrun bool
	force  bool
	prompt func(message string) (string, error)
}

// New returns an asker. With dryrun every question is answered no,
// with force every question is answered yes, otherwise the user is
// asked in the terminal (or no if stdout is not a terminal).
func New(dryrun, force bool) ports.ForAsking {
	return &forAsking{
		dryrun: dryrun,
		force:  force,
		prompt: surveyPrompt,
	}
}

const (
	choiceNo   = "No"
	choiceYes  = "Yes"
	choiceExit = "Exit program"
)

func (p *forAsking) Ask(ctx context.Context, format string, a ...any) bool {
	l := logger.FromContext(ctx)
	question := fmt.Sprintf(format, a...)
	if p.dryrun {
		l.Info(question + " No")
		return false
	}
	if p.force {
		l.Info(question + " Yes")
		return true
	}
	if !isTerminal() {
		l.Warn("Stdout is not a terminal, will answer no", "question", question)
		return false
	}
	return p.yes(ctx, question)
}

func (p *forAsking) yes(ctx context.Context, question string) bool {
	l := logger.FromContext(ctx)
	choice, err := p.prompt(question)
	if err != nil {
		l.Warn("Unable to ask, will answer no", "question", question, "error", err)
		return false
	}
	switch choice {
	case "", choiceNo:
		return false
	case choiceYes:
		return true
	case choiceExit:
		l.Warn("Exiting")
		os.Exit(0)
	}
	return false
}

func surveyPrompt(message string) (string, error) {
	choice := ""
	prompt := &survey.Select{
		Message: message,
		Options: []string{choiceNo, choiceYes, choiceExit},
		Default: choiceYes,
	}
	err := survey.AskOne(prompt, &choice)
	return choice, err
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
