package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/lipgloss"

	"git.home.luguber.info/inful/buildstamp/internal/config"
	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/logfields"
	"git.home.luguber.info/inful/buildstamp/internal/metrics"
)

// Trigger runs the watched action. It must return promptly once ctx is canceled.
type Trigger func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Root     string
	Pattern  string
	Mode     config.WatchMode
	Interval time.Duration
	Debounce time.Duration
	// Skip lists directories (relative to Root or absolute) never watched.
	Skip []string
	// Action labels metrics and logs, e.g. "test" or "run".
	Action string
	// Restart cancels a running trigger when a change arrives.
	Restart bool
}

// OptionsFromConfig fills the detection settings from the watch configuration.
func OptionsFromConfig(root string, cfg config.WatchConfig) Options {
	return Options{
		Root:     root,
		Pattern:  cfg.Pattern,
		Mode:     cfg.Mode,
		Interval: cfg.Interval,
		Debounce: cfg.Debounce,
	}
}

type source interface {
	start(ctx context.Context, changed func()) error
	stop() error
}

// Watcher runs a trigger once, then again after every detected change.
type Watcher struct {
	opts     Options
	trigger  Trigger
	match    *matcher
	logger   *slog.Logger
	recorder metrics.Recorder
	out      io.Writer
	renderer *lipgloss.Renderer
	tty      bool
	width    int

	changes chan struct{}
}

// New validates opts and creates a Watcher writing separators to stdout.
func New(opts Options, trigger Trigger, logger *slog.Logger) (*Watcher, error) {
	if trigger == nil {
		return nil, errors.ValidationError("watch trigger is required").Build()
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Pattern == "" {
		opts.Pattern = config.DefaultWatchPattern
	}
	if !doublestar.ValidatePattern(opts.Pattern) {
		return nil, errors.ConfigError("invalid watch pattern").
			WithContext("pattern", opts.Pattern).
			Build()
	}
	if opts.Mode == "" {
		opts.Mode = config.WatchModeNotify
	}
	if opts.Mode != config.WatchModeNotify && opts.Mode != config.WatchModePoll {
		return nil, errors.ConfigError("unsupported watch mode").
			WithContext("mode", string(opts.Mode)).
			Build()
	}
	if opts.Interval <= 0 {
		opts.Interval = config.DefaultWatchInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = config.DefaultWatchDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		opts:     opts,
		trigger:  trigger,
		match:    newMatcher(opts.Root, opts.Pattern, opts.Skip),
		logger:   logger.With(logfields.Action(opts.Action)),
		recorder: metrics.NoopRecorder{},
		changes:  make(chan struct{}, 1),
	}
	w.setOutput(os.Stdout)
	return w, nil
}

// WithRecorder injects a metrics recorder.
func (w *Watcher) WithRecorder(r metrics.Recorder) *Watcher {
	if r != nil {
		w.recorder = r
	}
	return w
}

// WithOutput redirects separators. Non-terminal writers are never cleared.
func (w *Watcher) WithOutput(out io.Writer) *Watcher {
	w.setOutput(out)
	return w
}

func (w *Watcher) setOutput(out io.Writer) {
	w.out = out
	w.renderer = lipgloss.NewRenderer(out)
	w.tty, w.width = terminal(out)
}

// signal queues one pending change; further changes coalesce into it.
func (w *Watcher) signal() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

func (w *Watcher) newSource() source {
	if w.opts.Mode == config.WatchModePoll {
		return newPollSource(w.match, w.opts.Interval, w.logger)
	}
	return newNotifySource(w.match, w.opts.Debounce, w.logger)
}

// Run blocks until ctx is canceled. Trigger failures are reported through
// the separator and never stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	src := w.newSource()
	if err := src.start(ctx, w.signal); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to start watching").
			WithContext("root", w.match.root).
			WithContext("mode", string(w.opts.Mode)).
			Build()
	}
	defer func() {
		if err := src.stop(); err != nil {
			w.logger.Warn("Failed to stop watcher", logfields.Error(err))
		}
	}()
	w.logger.Info("Watching for changes",
		logfields.Path(w.match.root),
		slog.String("pattern", w.opts.Pattern),
		slog.String("mode", string(w.opts.Mode)))

	for {
		restarted, done := w.runOnce(ctx)
		if done {
			return nil
		}
		if restarted {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-w.changes:
			w.recorder.IncWatchTrigger(w.opts.Action)
		}
	}
}

// runOnce runs the trigger to completion, or until a change interrupts it in
// restart mode. done is true once ctx is canceled.
func (w *Watcher) runOnce(ctx context.Context) (restarted, done bool) {
	if w.tty {
		_, _ = io.WriteString(w.out, clearScreen)
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- w.trigger(runCtx) }()

	var interrupts <-chan struct{}
	if w.opts.Restart {
		interrupts = w.changes
	}

	select {
	case <-ctx.Done():
		cancel()
		<-result
		return false, true
	case <-interrupts:
		cancel()
		<-result
		w.recorder.IncWatchTrigger(w.opts.Action)
		w.logger.Info("Change detected; restarting")
		return true, false
	case err := <-result:
		if ctx.Err() != nil {
			return false, true
		}
		if err != nil {
			w.logger.Debug("Watched action failed", logfields.Error(err))
		}
		_, _ = fmt.Fprintln(w.out, Separator(w.renderer, w.width, err == nil))
		return false, false
	}
}
