// Package project derives everything buildstamp knows about the project in a
// working directory: module path, repository state, version and build plan.
package project

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/buildstamp/internal/build"
	"git.home.luguber.info/inful/buildstamp/internal/config"
	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/git"
	"git.home.luguber.info/inful/buildstamp/internal/gomod"
	"git.home.luguber.info/inful/buildstamp/internal/logfields"
	"git.home.luguber.info/inful/buildstamp/internal/metrics"
	"git.home.luguber.info/inful/buildstamp/internal/shell"
	"git.home.luguber.info/inful/buildstamp/internal/targets"
	"git.home.luguber.info/inful/buildstamp/internal/versioning"
)

// Project is the immutable result of Resolve.
type Project struct {
	// Dir is the absolute project directory.
	Dir string
	// Module is the module path from go.mod, empty when there is none.
	Module string
	// Identifier is the last segment of Module; it names the image and picks
	// the main target.
	Identifier string
	// Name is the repository name, used in release and image metadata.
	Name    string
	State   git.State
	Version versioning.Spec
	Plan    build.Plan
	BinDir  string
}

// Options configures Resolve.
type Options struct {
	Dir      string
	Config   *config.Config
	Runner   shell.Runner
	Logger   *slog.Logger
	Recorder metrics.Recorder
	// Query overrides the backend selected by Config.Git.Backend.
	Query git.Query
	// FS overrides the tree targets are discovered in (os.DirFS(Dir) by default).
	FS fs.FS
	// History is shared by every Resolve of one process so a shallow clone
	// is fetched at most once.
	History *git.HistoryFetch
}

// Resolve inspects the repository and computes the version and build plan
// once. Git failures degrade to defaults; only an unreadable target tree or
// an invalid target pattern is an error.
func Resolve(ctx context.Context, opts Options) (*Project, error) {
	start := time.Now()
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	runner := opts.Runner
	if runner == nil {
		runner = shell.NewExecRunner(logger)
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve project directory").
			WithContext(logfields.KeyPath, dir).
			Build()
	}

	p := &Project{Dir: abs, BinDir: cfg.BinDir}

	p.Module, err = gomod.ReadModulePath(abs)
	if err != nil {
		logger.Warn("No module path; ldflags symbols will be unqualified", logfields.Error(err))
	}
	p.Identifier = gomod.Identifier(p.Module)

	p.State = inspect(ctx, opts, cfg.Git.Backend, abs, runner, logger)
	p.Version = versioning.Resolve(p.State)
	p.Name = git.ProjectName(p.State.RemoteURL, abs)

	fsys := opts.FS
	if fsys == nil {
		fsys = os.DirFS(abs)
	}
	set, err := targets.Discoverer{Pattern: cfg.Targets.Pattern, Logger: logger}.Discover(fsys)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "target discovery failed").
			Fatal().
			WithContext("pattern", cfg.Targets.Pattern).
			Build()
	}

	root := p.State.TopLevel
	if root == "" {
		root = abs
	}
	flags := build.ComposeLdflags(p.Module, p.Version, p.State.HeadCommit, p.State.RemoteURL, root)
	p.Plan = build.NewPlan(set, p.Identifier, flags)
	p.Plan.Trimpath = cfg.Build.UseTrimpath()

	recorder.ObserveResolveDuration(time.Since(start))
	logger.Debug("Project resolved",
		logfields.Module(p.Module),
		logfields.Version(p.Version.String()),
		logfields.Target(p.Plan.MainTarget),
		slog.Int("targets", len(set)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return p, nil
}

func inspect(ctx context.Context, opts Options, backend config.GitBackend, dir string, runner shell.Runner, logger *slog.Logger) git.State {
	q := opts.Query
	if q == nil {
		var err error
		q, err = git.NewQuery(backend, dir, runner)
		if err != nil {
			logger.Warn("Repository unavailable; using default version", logfields.Error(err))
			return git.State{}
		}
	}
	return git.NewInspector(q, dir, logger).WithHistoryFetch(opts.History).State(ctx)
}

// SourceURL points at the inspected commit in the remote's web view.
func (p *Project) SourceURL() string {
	if p.State.RemoteURL == "" {
		return ""
	}
	return strings.TrimSuffix(p.State.RemoteURL, "/") + "/tree/" + p.State.HeadCommit
}

// Binary is the output path of the build action for target name.
func (p *Project) Binary(name string) string {
	return build.BinaryPath(p.BinDir, name)
}

// AdditionalTargets lists every target but the main one, sorted.
func (p *Project) AdditionalTargets() []string {
	var out []string
	for _, n := range p.Plan.Targets.Names() {
		if n != p.Plan.MainTarget {
			out = append(out, n)
		}
	}
	return out
}
