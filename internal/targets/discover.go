package targets

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/buildstamp/internal/logfields"
)

// DefaultPattern matches one directory level below cmd/.
const DefaultPattern = "cmd/*/main.go"

// Target is one compilable entry point.
type Target struct {
	Name       string
	SourcePath string
}

// Set maps target names to targets.
type Set map[string]Target

// Names returns the target names in lexical order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Discoverer scans a project tree for entry points.
type Discoverer struct {
	Pattern string
	Logger  *slog.Logger
}

// Discover scans root with the default pattern.
func Discover(root string) (Set, error) {
	return Discoverer{}.Discover(os.DirFS(root))
}

// Discover matches the pattern against fsys. Matches are visited in sorted
// order; when two directories share a base name the first one wins and the
// other is logged and skipped. No match is an empty set, not an error.
func (d Discoverer) Discover(fsys fs.FS) (Set, error) {
	pattern := d.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("discover targets with %q: %w", pattern, err)
	}
	sort.Strings(matches)

	set := make(Set, len(matches))
	for _, m := range matches {
		dir := path.Dir(m)
		if dir == "." {
			logger.Debug("Ignoring entry point at project root", logfields.Path(m))
			continue
		}
		name := path.Base(dir)
		src := "./" + dir + "/..."
		if prev, ok := set[name]; ok {
			logger.Warn("Duplicate target name; keeping first match",
				logfields.Target(name),
				slog.String("kept", prev.SourcePath),
				slog.String("skipped", src))
			continue
		}
		set[name] = Target{Name: name, SourcePath: src}
	}
	return set, nil
}
