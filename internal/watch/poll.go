package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/buildstamp/internal/logfields"
)

// pollSource reports changes by comparing (path, mtime) lists on an interval.
type pollSource struct {
	match    *matcher
	interval time.Duration
	logger   *slog.Logger

	scheduler gocron.Scheduler
	last      []stamp
}

func newPollSource(m *matcher, interval time.Duration, logger *slog.Logger) *pollSource {
	return &pollSource{match: m, interval: interval, logger: logger}
}

func (s *pollSource) start(_ context.Context, changed func()) error {
	baseline, err := s.match.scan()
	if err != nil {
		return err
	}
	s.last = baseline

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.tick, changed),
		gocron.WithName("watch-poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return err
	}
	s.scheduler = scheduler
	scheduler.Start()
	s.logger.Debug("Polling for changes", slog.Duration("interval", s.interval), logfields.Path(s.match.root))
	return nil
}

// tick runs on the scheduler; singleton mode keeps ticks from overlapping.
func (s *pollSource) tick(changed func()) {
	current, err := s.match.scan()
	if err != nil {
		s.logger.Warn("Failed to scan sources", logfields.Error(err))
		return
	}
	if sameStamps(s.last, current) {
		return
	}
	s.last = current
	changed()
}

func (s *pollSource) stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}
