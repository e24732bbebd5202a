package config

import "git.home.luguber.info/inful/buildstamp/internal/foundation/normalization"

// GitBackend selects how repository state is queried.
type GitBackend string

const (
	GitBackendCLI   GitBackend = "cli"
	GitBackendGoGit GitBackend = "go-git"
)

var gitBackendNormalizer = normalization.New("git backend", map[string]GitBackend{
	"cli":    GitBackendCLI,
	"git":    GitBackendCLI,
	"go-git": GitBackendGoGit,
	"gogit":  GitBackendGoGit,
}, GitBackendCLI)

// WatchMode selects how source changes are detected.
type WatchMode string

const (
	WatchModeNotify WatchMode = "notify"
	WatchModePoll   WatchMode = "poll"
)

var watchModeNormalizer = normalization.New("watch mode", map[string]WatchMode{
	"notify":   WatchModeNotify,
	"fsnotify": WatchModeNotify,
	"poll":     WatchModePoll,
}, WatchModeNotify)
