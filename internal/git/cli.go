package git

import (
	"context"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/buildstamp/internal/shell"
)

// CLIQuery answers queries by running the git binary.
type CLIQuery struct {
	runner shell.Runner
	dir    string
}

// NewCLIQuery returns a Query running git in dir.
func NewCLIQuery(runner shell.Runner, dir string) *CLIQuery {
	return &CLIQuery{runner: runner, dir: dir}
}

func (q *CLIQuery) git(ctx context.Context, op string, args ...string) (string, error) {
	out, err := q.runner.Output(ctx, shell.Command{Name: "git", Args: args, Dir: q.dir})
	if err != nil {
		return "", ClassifyGitError(err, op)
	}
	return strings.TrimSpace(out), nil
}

// IsShallow reports whether the clone has grafted history.
func (q *CLIQuery) IsShallow(ctx context.Context) (bool, error) {
	out, err := q.git(ctx, "is-shallow", "rev-parse", "--is-shallow-repository")
	return out == "true", err
}

// Unshallow fetches the full history and every tag from the default remote.
func (q *CLIQuery) Unshallow(ctx context.Context) error {
	_, err := q.git(ctx, "unshallow", "fetch", "--prune", "--tags", "--unshallow")
	return err
}

// Describe runs git describe restricted to release tags. The output always
// has the long tag-N-gHASH shape unless no release tag is reachable, in which
// case it is the abbreviated HEAD hash.
func (q *CLIQuery) Describe(ctx context.Context) (string, error) {
	args := []string{"describe", "--always", "--tags", "--long", "--match", DescribePattern}
	for _, ex := range DescribeExcludes {
		args = append(args, "--exclude", ex)
	}
	return q.git(ctx, "describe", args...)
}

// Branch returns the checked out branch, or "HEAD" when detached.
func (q *CLIQuery) Branch(ctx context.Context) (string, error) {
	return q.git(ctx, "branch", "rev-parse", "--abbrev-ref", "HEAD")
}

// CommitCount counts the commits reachable from HEAD.
func (q *CLIQuery) CommitCount(ctx context.Context) (int, error) {
	out, err := q.git(ctx, "commit-count", "rev-list", "--count", "HEAD")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, ClassifyGitError(err, "commit-count")
	}
	return n, nil
}

// HeadCommit returns the full hash of HEAD.
func (q *CLIQuery) HeadCommit(ctx context.Context) (string, error) {
	return q.git(ctx, "head", "rev-parse", "HEAD")
}

// RemoteURL returns the fetch URL of origin as configured.
func (q *CLIQuery) RemoteURL(ctx context.Context) (string, error) {
	return q.git(ctx, "remote", "remote", "get-url", "origin")
}

// TopLevel returns the absolute path of the working tree root.
func (q *CLIQuery) TopLevel(ctx context.Context) (string, error) {
	return q.git(ctx, "toplevel", "rev-parse", "--show-toplevel")
}

// ModifiedFiles parses porcelain v2 status, ignoring untracked files.
func (q *CLIQuery) ModifiedFiles(ctx context.Context) ([]string, error) {
	out, err := q.runner.Output(ctx, shell.Command{
		Name: "git",
		Args: []string{"status", "--porcelain=2", "--untracked-files=no"},
		Dir:  q.dir,
	})
	if err != nil {
		return nil, ClassifyGitError(err, "status")
	}
	return ParsePorcelainV2(out), nil
}

var _ Query = (*CLIQuery)(nil)
