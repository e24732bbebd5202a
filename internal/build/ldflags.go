package build

import (
	"strings"
	"unicode"

	"git.home.luguber.info/inful/buildstamp/internal/versioning"
)

// BuildInfoPackage is the package, relative to the module root, whose string
// variables receive the stamped values.
const BuildInfoPackage = "pkg/buildinfo"

// Keys of the stamped variables, in the order they are emitted.
const (
	KeyVersion   = "Version"
	KeyGitHash   = "GitHash"
	KeyGitRepo   = "GitRepo"
	KeyBuildRoot = "BuildRoot"
)

// Flag is a single -X symbol=value directive.
type Flag struct {
	Symbol string
	Value  string
}

// Field renders the symbol=value field, quoted when the value holds
// whitespace so the go tool's field splitting keeps it whole.
func (f Flag) Field() string {
	field := f.Symbol + "=" + f.Value
	if !strings.ContainsFunc(f.Value, unicode.IsSpace) {
		return field
	}
	if !strings.Contains(field, "'") {
		return "'" + field + "'"
	}
	return `"` + field + `"`
}

// Flags is an ordered list of -X directives.
type Flags []Flag

// String renders the flags as the value of -ldflags.
func (fs Flags) String() string {
	parts := make([]string, 0, len(fs))
	for _, f := range fs {
		parts = append(parts, "-X "+f.Field())
	}
	return strings.Join(parts, " ")
}

// Lookup returns the value stamped into the variable named key.
func (fs Flags) Lookup(key string) (string, bool) {
	for _, f := range fs {
		if strings.HasSuffix(f.Symbol, "."+key) {
			return f.Value, true
		}
	}
	return "", false
}

// ComposeLdflags returns the Version, GitHash, GitRepo and BuildRoot
// directives for module, in that order.
func ComposeLdflags(module string, version versioning.Spec, commit, remote, root string) Flags {
	prefix := BuildInfoPackage
	if module != "" {
		prefix = module + "/" + BuildInfoPackage
	}
	return Flags{
		{Symbol: prefix + "." + KeyVersion, Value: version.String()},
		{Symbol: prefix + "." + KeyGitHash, Value: commit},
		{Symbol: prefix + "." + KeyGitRepo, Value: remote},
		{Symbol: prefix + "." + KeyBuildRoot, Value: root},
	}
}
