package watch

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// matcher decides which paths under root are watched.
type matcher struct {
	root    string
	pattern string
	skip    map[string]struct{}
}

func newMatcher(root, pattern string, skip []string) *matcher {
	m := &matcher{root: filepath.Clean(root), pattern: pattern, skip: make(map[string]struct{}, len(skip))}
	for _, s := range skip {
		if s == "" {
			continue
		}
		if !filepath.IsAbs(s) {
			s = filepath.Join(m.root, s)
		}
		m.skip[filepath.Clean(s)] = struct{}{}
	}
	return m
}

// skipDir reports whether the directory at path is left out entirely.
// Hidden directories (.git included) and configured paths are skipped.
func (m *matcher) skipDir(path string) bool {
	path = filepath.Clean(path)
	if path == m.root {
		return false
	}
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	_, ok := m.skip[path]
	return ok
}

// file reports whether a file path matches the watch pattern.
func (m *matcher) file(path string) bool {
	rel, err := filepath.Rel(m.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	ok, err := doublestar.Match(m.pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

// dirs lists every directory that is not skipped.
func (m *matcher) dirs() ([]string, error) {
	var out []string
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if m.skipDir(path) {
			return filepath.SkipDir
		}
		out = append(out, path)
		return nil
	})
	return out, err
}

// stamp is one matching file and its modification time.
type stamp struct {
	path  string
	mtime time.Time
}

// scan returns the sorted stamps of every matching file.
func (m *matcher) scan() ([]stamp, error) {
	var out []stamp
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Files may disappear between listing and stat.
			if path != m.root {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if m.skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !m.file(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // vanished file
		}
		out = append(out, stamp{path: path, mtime: info.ModTime()})
		return nil
	})
	slices.SortFunc(out, func(a, b stamp) int { return strings.Compare(a.path, b.path) })
	return out, err
}

func sameStamps(a, b []stamp) bool {
	return slices.EqualFunc(a, b, func(x, y stamp) bool {
		return x.path == y.path && x.mtime.Equal(y.mtime)
	})
}
