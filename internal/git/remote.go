package git

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var sshRemote = regexp.MustCompile(`^git@([^:]+):(.+)\.git$`)

// NormalizeRemoteURL rewrites scp-style SSH remotes into browsable HTTPS URLs:
// git@host:path.git becomes https://host/path, and any host ending in
// github.com (ssh aliases such as work.github.com) collapses to github.com.
// Other URLs are returned trimmed but otherwise unchanged.
func NormalizeRemoteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	m := sshRemote.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	host := m[1]
	if strings.HasSuffix(host, "github.com") {
		host = "github.com"
	}
	return "https://" + host + "/" + m[2]
}

// ProjectName is the last path segment of the remote (".git" stripped), or the
// base name of dir when there is no remote.
func ProjectName(remote, dir string) string {
	remote = strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(remote), "/"), ".git")
	if remote != "" {
		if i := strings.LastIndexAny(remote, "/:"); i >= 0 {
			remote = remote[i+1:]
		}
		if remote != "" {
			return remote
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return path.Base(filepath.ToSlash(dir))
}
