package main

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// prompter asks the user interactive questions.
type prompter interface {
	Confirm(message string, def bool) (bool, error)
	Select(message string, options []string) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	ok := def
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &ok); err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}
	return ok, nil
}

func (surveyPrompter) Select(message string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("prompt: nothing to choose from")
	}
	choice := options[0]
	q := &survey.Select{Message: message, Options: options, Default: options[0]}
	if err := survey.AskOne(q, &choice); err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	return choice, nil
}

// assumeYes answers every question with its default, used by --yes.
type assumeYes struct{}

func (assumeYes) Confirm(string, bool) (bool, error) { return true, nil }

func (assumeYes) Select(_ string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("prompt: nothing to choose from")
	}
	return options[0], nil
}
