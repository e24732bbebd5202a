package versioning

import (
	"strconv"
	"strings"
)

// Spec is a derived version.
type Spec struct {
	Base            string // vMAJOR.MINOR.PATCH after the patch bump
	Tag             string // base before the bump
	Branch          string // label; "rc" for default branches
	CommitsSinceTag int
	CommitHash      string // "g" + abbreviated commit
	DirtyTag        string // "m" + 8 hex digits, empty for a clean tree
}

// ReleaseLabel is the branch label of default branches.
const ReleaseLabel = "rc"

// IsRelease reports whether the version is exactly a tag.
func (s Spec) IsRelease() bool {
	return s.Branch == ReleaseLabel && s.CommitsSinceTag == 0 && s.DirtyTag == ""
}

// String serializes the version.
func (s Spec) String() string {
	if s.IsRelease() {
		return s.Base
	}
	parts := []string{s.Branch, strconv.Itoa(s.CommitsSinceTag), s.CommitHash}
	if s.DirtyTag != "" {
		parts = append(parts, s.DirtyTag)
	}
	return s.Base + "-" + strings.Join(parts, ".")
}

// bumpPatch increments the last numeric component of a strict vX.Y.Z tag.
// Components are incremented as decimal strings, so arbitrarily long numbers
// do not overflow.
func bumpPatch(v string) string {
	i := strings.LastIndex(v, ".")
	if i < 0 {
		return v
	}
	return v[:i+1] + incrementDecimal(v[i+1:])
}

func incrementDecimal(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}
