package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/buildstamp/internal/build"
	"git.home.luguber.info/inful/buildstamp/internal/config"
	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/git"
	"git.home.luguber.info/inful/buildstamp/internal/logfields"
	"git.home.luguber.info/inful/buildstamp/internal/metrics"
	"git.home.luguber.info/inful/buildstamp/internal/project"
	"git.home.luguber.info/inful/buildstamp/internal/shell"
	"git.home.luguber.info/inful/buildstamp/internal/watch"
)

// Global carries the state shared by every command. AfterApply fills it in.
type Global struct {
	Context context.Context
	// Dir is the absolute project directory.
	Dir      string
	Config   *config.Config
	Logger   *slog.Logger
	Runner   shell.Runner
	Recorder metrics.Recorder
	Stdout   io.Writer
	Verbose  bool
	// Query overrides the configured git backend.
	Query git.Query

	registry    *prom.Registry
	metricsFile string
	project     *project.Project
	history     git.HistoryFetch
}

// CLI definition & global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path (relative to --dir)" default:".buildstamp.yaml"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	Dir         string           `short:"C" help:"Project directory" default:"." type:"path"`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics to this file on exit" type:"path"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Info         InfoCmd         `cmd:"" help:"Show module, version, image name and targets"`
	Ver          VersionCmd      `cmd:"" name:"version" help:"Print the derived version"`
	Test         TestCmd         `cmd:"" help:"Run the module's tests with coverage and the race detector"`
	Build        BuildCmd        `cmd:"" help:"Compile every target into the bin directory"`
	BuildImage   BuildImageCmd   `cmd:"" name:"build-image" help:"Build the container image and push it to the configured registries"`
	Run          RunCmd          `cmd:"" help:"Run the main target"`
	Clean        CleanCmd        `cmd:"" help:"Remove the bin directory"`
	WatchTest    WatchTestCmd    `cmd:"" name:"watch-test" help:"Run the tests whenever a source file changes"`
	WatchRun     WatchRunCmd     `cmd:"" name:"watch-run" help:"Restart the main target whenever a source file changes"`
	ReleaseNotes ReleaseNotesCmd `cmd:"" name:"release-notes" help:"Extract the changelog section of a version"`
}

// AfterApply runs after flag parsing: loads .env files and the configuration,
// then sets up logging and metrics once.
func (c *CLI) AfterApply(g *Global) error {
	dir, err := filepath.Abs(c.Dir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "resolve project directory").
			WithContext(logfields.KeyPath, c.Dir).
			Build()
	}

	// .env files feed ${VAR} expansion in the configuration.
	loaded, envErr := config.LoadEnvFiles(dir)

	cfgPath := c.Config
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(dir, cfgPath)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger := cfg.Log.NewLogger(os.Stderr, c.Verbose).With(logfields.RunID(uuid.NewString()))
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Warn("Failed to load environment file", logfields.Error(envErr))
	}
	for _, f := range loaded {
		logger.Debug("Loaded environment file", logfields.Path(f))
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w, logfields.Path(cfgPath))
	}

	g.Dir = dir
	g.Config = cfg
	g.Logger = logger
	g.Verbose = c.Verbose
	if g.Context == nil {
		g.Context = context.Background()
	}
	if g.Runner == nil {
		g.Runner = shell.NewExecRunner(logger)
	}
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}
	g.Recorder = metrics.NoopRecorder{}
	if c.MetricsFile != "" {
		g.registry = prom.NewRegistry()
		g.Recorder = metrics.NewPrometheusRecorder(g.registry)
		g.metricsFile = c.MetricsFile
	}
	return nil
}

// Resolve derives the project afresh. A shallow clone is still fetched at
// most once per process.
func (g *Global) Resolve(ctx context.Context) (*project.Project, error) {
	return project.Resolve(ctx, project.Options{
		Dir:      g.Dir,
		Config:   g.Config,
		Runner:   g.Runner,
		Logger:   g.Logger,
		Recorder: g.Recorder,
		Query:    g.Query,
		History:  &g.history,
	})
}

// Project derives the project once per invocation.
func (g *Global) Project() (*project.Project, error) {
	if g.project != nil {
		return g.project, nil
	}
	p, err := g.Resolve(g.Context)
	if err != nil {
		return nil, err
	}
	g.project = p
	return p, nil
}

// Executor returns a go tool executor rooted at dir.
func (g *Global) Executor(dir string) *build.Executor {
	e := build.NewExecutor(g.Runner, g.Logger).
		WithRecorder(g.Recorder).
		WithJobs(g.Config.Build.Jobs).
		WithDir(dir)
	if g.Stdout != io.Writer(os.Stdout) {
		e = e.WithOutput(g.Stdout)
	}
	return e
}

func (g *Global) watcher(action string, restart bool, trigger watch.Trigger) (*watch.Watcher, error) {
	opts := watch.OptionsFromConfig(g.Dir, g.Config.Watch)
	opts.Skip = []string{g.Config.BinDir}
	opts.Action = action
	opts.Restart = restart
	w, err := watch.New(opts, trigger, g.Logger)
	if err != nil {
		return nil, err
	}
	return w.WithRecorder(g.Recorder).WithOutput(g.Stdout), nil
}

// path resolves p against the project directory.
func (g *Global) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(g.Dir, p)
}

// Finish writes the metrics file, when one was requested.
func (g *Global) Finish() error {
	if g.registry == nil {
		return nil
	}
	return metrics.WriteTextfile(g.registry, g.metricsFile)
}
