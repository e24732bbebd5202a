package git

import "strings"

// ParsePorcelainV2 extracts the paths of changed tracked entries from
// `git status --porcelain=2` output. Ordinary (1), rename/copy (2) and
// unmerged (u) records are recognised; for renames the new path is returned.
// Header (#), untracked (?) and ignored (!) lines are skipped.
func ParsePorcelainV2(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		var path string
		switch line[0] {
		case '1':
			// 1 XY sub mH mI mW hH hI path
			path = field(line, 8)
		case '2':
			// 2 XY sub mH mI mW hH hI Xscore path<TAB>origPath
			path = field(line, 9)
			if i := strings.IndexByte(path, '\t'); i >= 0 {
				path = path[:i]
			}
		case 'u':
			// u XY sub m1 m2 m3 mW h1 h2 h3 path
			path = field(line, 10)
		default:
			continue
		}
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

// field returns everything from the n-th space separated field on, so paths
// containing spaces survive.
func field(line string, n int) string {
	parts := strings.SplitN(line, " ", n+1)
	if len(parts) <= n {
		return ""
	}
	return parts[n]
}
