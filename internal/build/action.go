package build

import (
	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/foundation/normalization"
)

// Action is the go tool subcommand a plan is rendered for.
type Action string

const (
	ActionBuild Action = "build"
	ActionRun   Action = "run"
	ActionTest  Action = "test"
)

var actionNormalizer = normalization.New("action", map[string]Action{
	"build": ActionBuild,
	"run":   ActionRun,
	"test":  ActionTest,
}, "")

// ParseAction accepts build, run or test (case-insensitive).
func ParseAction(raw string) (Action, error) {
	a, err := actionNormalizer.Parse(raw)
	if err == nil && a == "" {
		err = errors.ValidationError("action is required").Build()
	}
	if err != nil {
		return "", errors.ValidationError("unsupported action").
			WithCause(err).
			WithContext("action", raw).
			Build()
	}
	return a, nil
}

// EmitsOutput reports whether the action writes a binary, i.e. takes -o.
func (a Action) EmitsOutput() bool { return a == ActionBuild }
