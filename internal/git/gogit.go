package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"golang.org/x/mod/semver"
)

// abbrevLen matches git's default core.abbrev for small repositories.
const abbrevLen = 7

var strictVersionTag = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)

// GoGitQuery answers queries with go-git, without a git binary.
type GoGitQuery struct {
	repo *git.Repository
	root string
}

// OpenGoGit opens the repository containing dir.
func OpenGoGit(dir string) (*GoGitQuery, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ClassifyGitError(err, "open")
	}
	q := &GoGitQuery{repo: repo}
	if wt, err := repo.Worktree(); err == nil {
		q.root = wt.Filesystem.Root()
	}
	return q, nil
}

// IsShallow reports whether the storer lists any shallow commits.
func (q *GoGitQuery) IsShallow(context.Context) (bool, error) {
	hashes, err := q.repo.Storer.Shallow()
	if err != nil {
		return false, ClassifyGitError(err, "is-shallow")
	}
	return len(hashes) > 0, nil
}

// Unshallow deepens the clone to its full history like `git fetch --unshallow`.
// go-git only ever adds shallow markers, so markers whose parents arrived are
// pruned afterwards. A clone that is still shallow is an error.
func (q *GoGitQuery) Unshallow(ctx context.Context) error {
	err := q.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Depth:      math.MaxInt32,
		Tags:       git.AllTags,
		Prune:      true,
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return ClassifyGitError(err, "unshallow")
	}
	remaining, err := q.pruneShallow()
	if err != nil {
		return ClassifyGitError(err, "unshallow")
	}
	if remaining > 0 {
		return GitError("clone is still shallow after fetch").
			WithContext("op", "unshallow").
			WithContext("shallow_commits", remaining).
			Build()
	}
	return nil
}

// pruneShallow drops shallow markers whose parents are all present and
// returns how many remain.
func (q *GoGitQuery) pruneShallow() (int, error) {
	shallows, err := q.repo.Storer.Shallow()
	if err != nil || len(shallows) == 0 {
		return 0, err
	}
	var keep []plumbing.Hash
	for _, h := range shallows {
		c, err := q.repo.CommitObject(h)
		if err != nil {
			keep = append(keep, h)
			continue
		}
		for _, p := range c.ParentHashes {
			if q.repo.Storer.HasEncodedObject(p) != nil {
				keep = append(keep, h)
				break
			}
		}
	}
	if len(keep) != len(shallows) {
		if err := q.repo.Storer.SetShallow(keep); err != nil {
			return 0, err
		}
	}
	return len(keep), nil
}

// Describe reproduces `git describe --always --tags --long`: the nearest
// ancestor of HEAD (breadth first) carrying a version tag, with the number of
// commits reachable from HEAD but not from that tag.
func (q *GoGitQuery) Describe(context.Context) (string, error) {
	head, err := q.repo.Head()
	if err != nil {
		return "", ClassifyGitError(err, "describe")
	}
	tags, err := q.versionTags()
	if err != nil {
		return "", ClassifyGitError(err, "describe")
	}
	abbrev := head.Hash().String()[:abbrevLen]

	tagCommit, tagName, found, err := q.nearestTagged(head.Hash(), tags)
	if err != nil {
		return "", ClassifyGitError(err, "describe")
	}
	if !found {
		return abbrev, nil
	}

	behind, err := q.reachable(tagCommit)
	if err != nil {
		return "", ClassifyGitError(err, "describe")
	}
	ahead, err := q.reachable(head.Hash())
	if err != nil {
		return "", ClassifyGitError(err, "describe")
	}
	count := 0
	for h := range ahead {
		if _, ok := behind[h]; !ok {
			count++
		}
	}
	return fmt.Sprintf("%s-%d-g%s", tagName, count, abbrev), nil
}

// versionTags maps commit hashes to the highest version tag pointing at them.
func (q *GoGitQuery) versionTags() (map[plumbing.Hash]string, error) {
	iter, err := q.repo.Tags()
	if err != nil {
		return nil, err
	}
	out := make(map[plumbing.Hash]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if !strictVersionTag.MatchString(name) {
			return nil
		}
		target := ref.Hash()
		if tag, err := q.repo.TagObject(target); err == nil {
			c, err := tag.Commit()
			if err != nil {
				return nil
			}
			target = c.Hash
		}
		if prev, ok := out[target]; !ok || semver.Compare(name, prev) > 0 {
			out[target] = name
		}
		return nil
	})
	return out, err
}

func (q *GoGitQuery) nearestTagged(from plumbing.Hash, tags map[plumbing.Hash]string) (plumbing.Hash, string, bool, error) {
	if len(tags) == 0 {
		return plumbing.ZeroHash, "", false, nil
	}
	seen := map[plumbing.Hash]bool{from: true}
	queue := []plumbing.Hash{from}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if name, ok := tags[h]; ok {
			return h, name, true, nil
		}
		c, err := q.repo.CommitObject(h)
		if err != nil {
			return plumbing.ZeroHash, "", false, err
		}
		for _, p := range c.ParentHashes {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return plumbing.ZeroHash, "", false, nil
}

func (q *GoGitQuery) reachable(from plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	iter, err := q.repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return nil, err
	}
	out := make(map[plumbing.Hash]struct{})
	err = iter.ForEach(func(c *object.Commit) error {
		out[c.Hash] = struct{}{}
		return nil
	})
	return out, err
}

// Branch returns the short branch name, or "HEAD" when detached.
func (q *GoGitQuery) Branch(context.Context) (string, error) {
	head, err := q.repo.Head()
	if err != nil {
		return "", ClassifyGitError(err, "branch")
	}
	if !head.Name().IsBranch() {
		return "HEAD", nil
	}
	return head.Name().Short(), nil
}

// CommitCount counts the commits reachable from HEAD.
func (q *GoGitQuery) CommitCount(context.Context) (int, error) {
	head, err := q.repo.Head()
	if err != nil {
		return 0, ClassifyGitError(err, "commit-count")
	}
	commits, err := q.reachable(head.Hash())
	if err != nil {
		return 0, ClassifyGitError(err, "commit-count")
	}
	return len(commits), nil
}

// HeadCommit returns the full hash of HEAD.
func (q *GoGitQuery) HeadCommit(context.Context) (string, error) {
	head, err := q.repo.Head()
	if err != nil {
		return "", ClassifyGitError(err, "head")
	}
	return head.Hash().String(), nil
}

// RemoteURL returns the first URL configured for origin.
func (q *GoGitQuery) RemoteURL(context.Context) (string, error) {
	remote, err := q.repo.Remote("origin")
	if err != nil {
		return "", ClassifyGitError(err, "remote")
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", GitError("origin has no URL").WithContext("op", "remote").Build()
	}
	return urls[0], nil
}

// TopLevel returns the worktree root.
func (q *GoGitQuery) TopLevel(context.Context) (string, error) {
	if q.root == "" {
		return "", GitError("bare repository has no worktree").WithContext("op", "toplevel").Build()
	}
	return q.root, nil
}

// ModifiedFiles lists tracked paths with staged or worktree changes, sorted.
func (q *GoGitQuery) ModifiedFiles(context.Context) ([]string, error) {
	wt, err := q.repo.Worktree()
	if err != nil {
		return nil, ClassifyGitError(err, "status")
	}
	status, err := wt.Status()
	if err != nil {
		return nil, ClassifyGitError(err, "status")
	}
	var paths []string
	for path, fs := range status {
		if fs.Worktree == git.Untracked || fs.Staging == git.Untracked {
			continue
		}
		if fs.Worktree == git.Unmodified && fs.Staging == git.Unmodified {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

var _ Query = (*GoGitQuery)(nil)
