package git

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/buildstamp/internal/config"
	"git.home.luguber.info/inful/buildstamp/internal/shell"
)

// DescribePattern is the glob passed to git describe --match. glob(7) cannot
// express "digits only", so the resolver re-checks the tag strictly.
const DescribePattern = "v[0-9]*.[0-9]*.[0-9]*"

// DescribeExcludes drop pre-release and build-metadata tags that
// DescribePattern still matches, so a nearer v1.3.0-rc1 does not hide v1.2.2.
var DescribeExcludes = []string{"v*-*", "v*+*"}

// Query issues the raw read-only queries the inspector needs.
type Query interface {
	IsShallow(ctx context.Context) (bool, error)
	// Unshallow fetches the missing history, tags included, pruning stale refs.
	Unshallow(ctx context.Context) error
	// Describe returns the long describe output for the nearest version tag, or
	// the abbreviated HEAD hash when no tag is reachable.
	Describe(ctx context.Context) (string, error)
	Branch(ctx context.Context) (string, error)
	CommitCount(ctx context.Context) (int, error)
	HeadCommit(ctx context.Context) (string, error)
	RemoteURL(ctx context.Context) (string, error)
	TopLevel(ctx context.Context) (string, error)
	// ModifiedFiles lists tracked files with staged or unstaged changes,
	// relative to the top level.
	ModifiedFiles(ctx context.Context) ([]string, error)
}

// ModifiedFile is a tracked file with local changes. ModTime is zero when the
// file could not be stat'ed (deleted, unreadable).
type ModifiedFile struct {
	Path    string
	ModTime time.Time
}

// State is the raw repository state of one invocation.
type State struct {
	Description   string
	CommitCount   int
	Branch        string
	HeadCommit    string
	RemoteURL     string // normalized, see NormalizeRemoteURL
	TopLevel      string
	ModifiedFiles []ModifiedFile
	Shallow       bool
}

// NewQuery returns the Query for backend, rooted at dir.
func NewQuery(backend config.GitBackend, dir string, runner shell.Runner) (Query, error) {
	switch backend {
	case config.GitBackendGoGit:
		return OpenGoGit(dir)
	case config.GitBackendCLI, "":
		return NewCLIQuery(runner, dir), nil
	default:
		return nil, fmt.Errorf("unknown git backend %q", backend)
	}
}
