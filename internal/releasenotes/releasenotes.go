// Package releasenotes assembles the release notes of a version from the
// project changelog.
package releasenotes

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Options selects the parts of the release notes.
type Options struct {
	// Prefix, when set, produces a "<Prefix> <version>" title line.
	Prefix string
	// Input is the changelog to extract the version's section from.
	Input string
	// Checksums is a file appended verbatim in a fenced block.
	Checksums string
}

// Generate builds the release notes for version.
func Generate(version string, opts Options) (string, error) {
	var sb strings.Builder
	if opts.Prefix != "" {
		fmt.Fprintf(&sb, "%s %s\n\n", opts.Prefix, version)
	}
	if opts.Input != "" {
		changelog, err := os.ReadFile(opts.Input) // #nosec G304 -- user-selected changelog
		if err != nil {
			return "", fmt.Errorf("read changelog: %w", err)
		}
		sb.WriteString(Extract(changelog, version))
	}
	if opts.Checksums != "" {
		sums, err := os.ReadFile(opts.Checksums) // #nosec G304 -- user-selected checksums file
		if err != nil {
			return "", fmt.Errorf("read checksums: %w", err)
		}
		sb.WriteString("\n## Checksums\n\n```\n")
		sb.Write(sums)
		if len(sums) > 0 && sums[len(sums)-1] != '\n' {
			sb.WriteByte('\n')
		}
		sb.WriteString("```\n")
	}
	return sb.String(), nil
}

// section is a level-1 heading and the byte range of the text below it.
type section struct {
	title     string
	lineStart int
	bodyStart int
}

// Extract returns the text under the first level-1 heading whose title is a
// prefix of version, up to the next level-1 heading. Leading blank lines are
// dropped. Headings inside code blocks do not count.
func Extract(changelog []byte, version string) string {
	sections := headings(changelog)
	for i, s := range sections {
		if s.title == "" || !strings.HasPrefix(version, s.title) {
			continue
		}
		end := len(changelog)
		if i+1 < len(sections) {
			end = sections[i+1].lineStart
		}
		return trimLeadingBlankLines(string(changelog[s.bodyStart:end]))
	}
	return ""
}

// emptyATX matches a level-1 ATX heading without text, such as "#" or "# ##".
var emptyATX = regexp.MustCompile(`^ {0,3}#([ \t]+#*)?[ \t]*\r?$`)

func headings(source []byte) []section {
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	var out []section
	// cursor is the offset up to which source has been attributed to blocks.
	cursor := 0
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level != 1 {
			if _, stop, ok := span(n); ok {
				cursor = max(cursor, stop)
			}
			continue
		}
		if h.Lines().Len() == 0 {
			// goldmark keeps no segment for an empty heading; find its line
			// between the previous block and the next one.
			limit := len(source)
			for next := n.NextSibling(); next != nil; next = next.NextSibling() {
				if start, _, ok := span(next); ok {
					limit = lineStart(source, start)
					break
				}
			}
			if start, end, ok := findEmptyHeading(source, cursor, limit); ok {
				out = append(out, section{lineStart: start, bodyStart: end})
				cursor = end
			}
			continue
		}
		lines := h.Lines()
		first, last := lines.At(0), lines.At(lines.Len()-1)

		var title bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			title.Write(seg.Value(source))
		}

		start := lineStart(source, first.Start)
		body := lineEnd(source, max(last.Stop-1, first.Start))
		if source[start+leadingSpaces(source[start:])] != '#' {
			// setext heading: skip the underline
			body = lineEnd(source, body)
		}
		out = append(out, section{
			title:     strings.TrimSpace(title.String()),
			lineStart: start,
			bodyStart: body,
		})
		cursor = body
	}
	return out
}

// span is the byte range covered by the lines of n's block descendants.
func span(n gmast.Node) (start, stop int, ok bool) {
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || c.Type() != gmast.TypeBlock {
			return gmast.WalkContinue, nil
		}
		lines := c.Lines()
		if lines.Len() == 0 {
			return gmast.WalkContinue, nil
		}
		if first := lines.At(0).Start; !ok || first < start {
			start = first
		}
		if last := lines.At(lines.Len() - 1).Stop; !ok || last > stop {
			stop = last
		}
		ok = true
		return gmast.WalkContinue, nil
	})
	return start, stop, ok
}

func findEmptyHeading(source []byte, from, to int) (int, int, bool) {
	pos := from
	if pos > 0 && pos <= len(source) && source[pos-1] != '\n' {
		pos = lineEnd(source, pos)
	}
	for pos < to {
		end := lineEnd(source, pos)
		if emptyATX.Match(bytes.TrimRight(source[pos:end], "\n")) {
			return pos, end, true
		}
		pos = end
	}
	return 0, 0, false
}

func lineStart(source []byte, pos int) int {
	return bytes.LastIndexByte(source[:pos], '\n') + 1
}

func lineEnd(source []byte, pos int) int {
	if pos >= len(source) {
		return len(source)
	}
	i := bytes.IndexByte(source[pos:], '\n')
	if i < 0 {
		return len(source)
	}
	return pos + i + 1
}

func leadingSpaces(b []byte) int {
	n := 0
	for n < len(b)-1 && b[n] == ' ' {
		n++
	}
	return n
}

func trimLeadingBlankLines(s string) string {
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			if strings.TrimSpace(s) == "" {
				return ""
			}
			return s
		}
		if strings.TrimSpace(s[:i]) != "" {
			return s
		}
		s = s[i+1:]
	}
	return s
}
