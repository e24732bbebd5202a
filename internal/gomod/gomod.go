// Package gomod reads the module declaration of a Go module.
package gomod

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// FileName is the module declaration file.
const FileName = "go.mod"

// ReadModulePath returns the module path declared by the first line of
// dir/go.mod that starts with "module ". Quoting and trailing comments are
// handled by modfile.
func ReadModulePath(dir string) (string, error) {
	p := filepath.Join(dir, FileName)
	data, err := os.ReadFile(p) // #nosec G304 -- fixed file name below the project root
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return ParseModuleLine(data)
}

// ParseModuleLine extracts the module path from the first "module " line of data.
func ParseModuleLine(data []byte) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "module ") {
			continue
		}
		mp := modfile.ModulePath([]byte(line))
		if mp == "" {
			return "", fmt.Errorf("malformed module line %q", line)
		}
		return mp, nil
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no module line in %s", FileName)
}

// Identifier is the last path segment of a module path.
func Identifier(modulePath string) string {
	if modulePath == "" {
		return ""
	}
	return path.Base(modulePath)
}
