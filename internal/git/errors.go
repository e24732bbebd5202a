package git

import (
	"strings"

	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/shell"
)

// GitError simplifies creating a git-scoped ClassifiedError.
func GitError(message string) *errors.ErrorBuilder {
	return errors.NewError(errors.CategoryGit, message)
}

// ClassifyGitError translates go-git or command-line git errors into ClassifiedErrors.
func ClassifyGitError(err error, op string) error {
	if err == nil {
		return nil
	}

	// Already classified
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())

	builder := GitError("git " + op + " failed").
		WithCause(err).
		WithContext("op", op)
	if code, ok := shell.ExitCode(err); ok {
		builder.WithExitCode(code)
	}

	switch {
	case strings.Contains(l, "authentication failed") || strings.Contains(l, "could not read username") || strings.Contains(l, "permission denied (publickey)"):
		builder.WithCategory(errors.CategoryAuth).UserAction()
	case strings.Contains(l, "no such remote") || strings.Contains(l, "no names found") || strings.Contains(l, "remote not found") || strings.Contains(l, "reference not found"):
		builder.WithCategory(errors.CategoryNotFound)
	case strings.Contains(l, "could not resolve host") || strings.Contains(l, "connection reset") || strings.Contains(l, "timeout") || strings.Contains(l, "remote hung up"):
		builder.WithCategory(errors.CategoryNetwork).Retryable()
	case strings.Contains(l, "not a git repository") || strings.Contains(l, "repository does not exist"):
		builder.WithCategory(errors.CategoryNotFound).WithContext("repository", false)
	}

	return builder.Build()
}
