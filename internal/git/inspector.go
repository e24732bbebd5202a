package git

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/buildstamp/internal/logfields"
)

// HistoryFetch guards the unshallow fetch. Inspectors sharing one run it at
// most once between them, so a process that re-inspects never fetches twice.
type HistoryFetch struct {
	once sync.Once
}

// Inspector gathers a State from a Query once.
type Inspector struct {
	query   Query
	dir     string
	logger  *slog.Logger
	history *HistoryFetch

	once  sync.Once
	state State
}

// NewInspector wraps q. dir is used to resolve modified files when the top
// level cannot be determined.
func NewInspector(q Query, dir string, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{query: q, dir: dir, logger: logger, history: &HistoryFetch{}}
}

// WithHistoryFetch shares h with other inspectors of the same process.
func (i *Inspector) WithHistoryFetch(h *HistoryFetch) *Inspector {
	if h != nil {
		i.history = h
	}
	return i
}

// State returns the repository state, querying on the first call only.
func (i *Inspector) State(ctx context.Context) State {
	i.once.Do(func() { i.state = i.collect(ctx) })
	return i.state
}

func (i *Inspector) collect(ctx context.Context) State {
	var s State

	shallow, err := i.query.IsShallow(ctx)
	i.degraded("is-shallow", err)
	s.Shallow = shallow
	if shallow {
		i.history.once.Do(func() {
			i.logger.Info("Fetching missing history from remote")
			if err := i.query.Unshallow(ctx); err != nil {
				i.logger.Warn("Unshallow fetch failed; version derivation may lack tags", logfields.Error(err))
			}
		})
	}

	s.Description, err = i.query.Describe(ctx)
	i.degraded("describe", err)
	s.Branch, err = i.query.Branch(ctx)
	i.degraded("branch", err)
	s.CommitCount, err = i.query.CommitCount(ctx)
	i.degraded("commit-count", err)
	s.HeadCommit, err = i.query.HeadCommit(ctx)
	i.degraded("head", err)

	remote, err := i.query.RemoteURL(ctx)
	i.degraded("remote", err)
	s.RemoteURL = NormalizeRemoteURL(remote)

	s.TopLevel, err = i.query.TopLevel(ctx)
	i.degraded("toplevel", err)

	paths, err := i.query.ModifiedFiles(ctx)
	i.degraded("status", err)
	base := s.TopLevel
	if base == "" {
		base = i.dir
	}
	for _, p := range paths {
		mf := ModifiedFile{Path: p}
		if info, err := os.Stat(filepath.Join(base, filepath.FromSlash(p))); err == nil {
			mf.ModTime = info.ModTime()
		} else {
			i.logger.Debug("Modified file not readable; excluded from dirty tag", logfields.Path(p), logfields.Error(err))
		}
		s.ModifiedFiles = append(s.ModifiedFiles, mf)
	}

	i.logger.Debug("Repository inspected",
		logfields.Commit(s.HeadCommit),
		logfields.Branch(s.Branch),
		slog.String("describe", s.Description),
		slog.Int("modified", len(s.ModifiedFiles)))
	return s
}

func (i *Inspector) degraded(op string, err error) {
	if err != nil {
		i.logger.Debug("Git query failed; using default", slog.String("op", op), logfields.Error(err))
	}
}
