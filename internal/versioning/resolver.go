package versioning

import (
	"fmt"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/buildstamp/internal/git"
)

var branchUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

var defaultBranches = map[string]bool{"main": true, "master": true, "HEAD": true}

// SanitizeBranch collapses every run of characters outside [A-Za-z0-9._-] to "-".
func SanitizeBranch(branch string) string {
	return branchUnsafe.ReplaceAllString(branch, "-")
}

// DirtyTag formats the newest modification time among files as m%08x of its
// unix seconds. Files with a zero ModTime are skipped; the result is empty
// when no file has a usable time.
func DirtyTag(files []git.ModifiedFile) string {
	var newest int64
	found := false
	for _, f := range files {
		if f.ModTime.IsZero() {
			continue
		}
		if t := f.ModTime.Unix(); !found || t > newest {
			newest, found = t, true
		}
	}
	if !found {
		return ""
	}
	return fmt.Sprintf("m%08x", newest)
}

// Resolve derives the version for state. It never fails: missing data
// degrades to the v0.0.0 base.
func Resolve(state git.State) Spec {
	d := ParseDescription(state.Description)

	spec := Spec{Tag: DefaultBase, CommitHash: d.Hash}
	switch d.Kind {
	case NoHistory:
		spec.Branch = noHistoryBranch
		spec.CommitsSinceTag = state.CommitCount
	case BareHash:
		spec.Branch = SanitizeBranch(strings.TrimSpace(state.Branch))
		spec.CommitsSinceTag = state.CommitCount
	case Tagged:
		spec.Branch = SanitizeBranch(strings.TrimSpace(state.Branch))
		spec.Tag = d.Tag
		spec.CommitsSinceTag = d.Commits
	}

	spec.DirtyTag = DirtyTag(state.ModifiedFiles)

	spec.Base = spec.Tag
	if spec.CommitsSinceTag > 0 || spec.DirtyTag != "" {
		spec.Base = bumpPatch(spec.Tag)
	}

	if defaultBranches[spec.Branch] || strings.HasPrefix(spec.Base, spec.Branch) {
		spec.Branch = ReleaseLabel
	}
	return spec
}
