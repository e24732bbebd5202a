package watch

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/buildstamp/internal/logfields"
)

// notifySource reports changes from filesystem notifications, debounced.
type notifySource struct {
	match    *matcher
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

func newNotifySource(m *matcher, debounce time.Duration, logger *slog.Logger) *notifySource {
	return &notifySource{match: m, debounce: debounce, logger: logger}
}

func (s *notifySource) start(ctx context.Context, changed func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	dirs, err := s.match.dirs()
	if err != nil {
		_ = watcher.Close()
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return err
		}
	}
	s.logger.Debug("Watching directories", slog.Int("count", len(dirs)), logfields.Path(s.match.root))

	s.wg.Add(1)
	go s.loop(ctx, changed)
	return nil
}

func (s *notifySource) loop(ctx context.Context, changed func()) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handle(event, changed)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("File watcher error", logfields.Error(err))
		}
	}
}

func (s *notifySource) handle(event fsnotify.Event, changed func()) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			s.addTree(event.Name)
			return
		}
	}
	// Chmod alone does not change content.
	if event.Op == fsnotify.Chmod {
		return
	}
	if !s.match.file(event.Name) {
		return
	}
	s.logger.Debug("Source changed", logfields.Path(event.Name), slog.String("op", event.Op.String()))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, changed)
}

// addTree starts watching a directory created after startup.
func (s *notifySource) addTree(dir string) {
	if s.match.skipDir(dir) {
		return
	}
	sub := newMatcher(dir, s.match.pattern, nil)
	sub.skip = s.match.skip
	dirs, err := sub.dirs()
	if err != nil {
		s.logger.Warn("Failed to list new directory", logfields.Path(dir), logfields.Error(err))
		return
	}
	for _, d := range dirs {
		if err := s.watcher.Add(d); err != nil {
			s.logger.Warn("Failed to watch new directory", logfields.Path(d), logfields.Error(err))
		}
	}
}

func (s *notifySource) stop() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.wg.Wait()

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	return err
}
