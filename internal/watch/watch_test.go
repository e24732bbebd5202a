package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildstamp/internal/config"
	ferrors "git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/metrics"
)

type triggerRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	triggers map[string]int
}

func (r *triggerRecorder) IncWatchTrigger(action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers[action]++
}

func (r *triggerRecorder) count(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.triggers[action]
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// touch moves the mtime forward so coarse filesystem clocks still see a change.
func touch(t *testing.T, path string, n int) {
	t.Helper()
	ts := time.Now().Add(time.Duration(n) * time.Minute)
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func newTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "cmd", "server", "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "README.md"), "# readme\n")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n")
	writeFile(t, filepath.Join(root, "bin", "gen.go"), "package bin\n")
	return root
}

func TestMatcher(t *testing.T) {
	root := newTree(t)
	m := newMatcher(root, "**/*.go", []string{"./bin"})

	assert.True(t, m.file(filepath.Join(root, "main.go")))
	assert.True(t, m.file(filepath.Join(root, "cmd", "server", "main.go")))
	assert.False(t, m.file(filepath.Join(root, "README.md")))
	assert.False(t, m.file(filepath.Join(filepath.Dir(root), "outside.go")))

	assert.False(t, m.skipDir(root))
	assert.True(t, m.skipDir(filepath.Join(root, ".git")))
	assert.True(t, m.skipDir(filepath.Join(root, "bin")))
	assert.False(t, m.skipDir(filepath.Join(root, "cmd")))

	dirs, err := m.dirs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "cmd"),
		filepath.Join(root, "cmd", "server"),
	}, dirs)
}

func TestScanTracksModificationTimes(t *testing.T) {
	root := newTree(t)
	m := newMatcher(root, "**/*.go", []string{"bin"})

	before, err := m.scan()
	require.NoError(t, err)
	require.Len(t, before, 2)
	assert.Equal(t, filepath.Join(root, "cmd", "server", "main.go"), before[0].path)

	same, err := m.scan()
	require.NoError(t, err)
	assert.True(t, sameStamps(before, same))

	touch(t, filepath.Join(root, "main.go"), 1)
	after, err := m.scan()
	require.NoError(t, err)
	assert.False(t, sameStamps(before, after))

	writeFile(t, filepath.Join(root, "extra.go"), "package main\n")
	added, err := m.scan()
	require.NoError(t, err)
	assert.Len(t, added, 3)
}

func TestNewValidates(t *testing.T) {
	noop := func(context.Context) error { return nil }

	_, err := New(Options{Root: t.TempDir()}, nil, nil)
	require.Error(t, err)

	_, err = New(Options{Root: t.TempDir(), Pattern: "[unclosed"}, noop, nil)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = New(Options{Root: t.TempDir(), Mode: "inotify"}, noop, nil)
	require.Error(t, err)

	w, err := New(Options{}, noop, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultWatchPattern, w.opts.Pattern)
	assert.Equal(t, config.WatchModeNotify, w.opts.Mode)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Watch
	cfg.Mode = config.WatchModePoll
	opts := OptionsFromConfig("/src", cfg)
	assert.Equal(t, "/src", opts.Root)
	assert.Equal(t, config.WatchModePoll, opts.Mode)
	assert.Equal(t, config.DefaultWatchInterval, opts.Interval)
}

func TestSeparator(t *testing.T) {
	r := lipgloss.NewRenderer(&bytes.Buffer{})
	assert.Contains(t, Separator(r, 12, true), strings.Repeat("-", 12))
	assert.Contains(t, Separator(r, 12, false), strings.Repeat("-", 12))
	assert.Contains(t, Separator(r, 0, true), strings.Repeat("-", DefaultWidth))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) separators() int {
	return strings.Count(b.String(), strings.Repeat("-", DefaultWidth))
}

type harness struct {
	watcher  *Watcher
	out      *syncBuffer
	recorder *triggerRecorder
	cancel   context.CancelFunc
	done     chan error
}

func start(t *testing.T, opts Options, trigger Trigger) *harness {
	t.Helper()
	h := &harness{
		out:      &syncBuffer{},
		recorder: &triggerRecorder{triggers: map[string]int{}},
		done:     make(chan error, 1),
	}
	w, err := New(opts, trigger, nil)
	require.NoError(t, err)
	h.watcher = w.WithOutput(h.out).WithRecorder(h.recorder)

	ctx, cancel := context.WithCancel(t.Context())
	h.cancel = cancel
	go func() { h.done <- h.watcher.Run(ctx) }()
	t.Cleanup(cancel)
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func pollOptions(root string) Options {
	return Options{
		Root:     root,
		Pattern:  "**/*.go",
		Mode:     config.WatchModePoll,
		Interval: 20 * time.Millisecond,
		Skip:     []string{"bin"},
		Action:   "test",
	}
}

func TestPollRerunsOnChange(t *testing.T) {
	root := newTree(t)
	var runs atomic.Int32
	h := start(t, pollOptions(root), func(context.Context) error {
		runs.Add(1)
		return nil
	})

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	touch(t, filepath.Join(root, "cmd", "server", "main.go"), 1)
	require.Eventually(t, func() bool { return runs.Load() == 2 }, 5*time.Second, 10*time.Millisecond)

	// Files outside the pattern or in skipped directories do not trigger.
	touch(t, filepath.Join(root, "README.md"), 2)
	touch(t, filepath.Join(root, "bin", "gen.go"), 2)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(2), runs.Load())

	assert.Equal(t, 2, h.out.separators())

	h.stop(t)
	assert.Equal(t, 1, h.recorder.count("test"))
}

func TestFailedRunKeepsWatching(t *testing.T) {
	root := newTree(t)
	var runs atomic.Int32
	h := start(t, pollOptions(root), func(context.Context) error {
		if runs.Add(1) == 1 {
			return errors.New("tests failed")
		}
		return nil
	})

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	touch(t, filepath.Join(root, "main.go"), 1)
	require.Eventually(t, func() bool { return h.out.separators() == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), runs.Load())

	h.stop(t)
}

func TestRestartCancelsRunningTrigger(t *testing.T) {
	root := newTree(t)
	opts := pollOptions(root)
	opts.Restart = true
	opts.Action = "run"

	var started, canceled atomic.Int32
	h := start(t, opts, func(ctx context.Context) error {
		started.Add(1)
		<-ctx.Done()
		canceled.Add(1)
		return ctx.Err()
	})

	require.Eventually(t, func() bool { return started.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	touch(t, filepath.Join(root, "main.go"), 1)
	require.Eventually(t, func() bool { return started.Load() == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), canceled.Load())

	h.stop(t)
	assert.Equal(t, int32(2), canceled.Load())
	assert.Equal(t, 1, h.recorder.count("run"))
	assert.NotContains(t, h.out.String(), "---", "interrupted runs print no separator")
}

func TestNotifyRerunsOnWrite(t *testing.T) {
	root := newTree(t)
	opts := pollOptions(root)
	opts.Mode = config.WatchModeNotify
	opts.Debounce = 20 * time.Millisecond

	var runs atomic.Int32
	h := start(t, opts, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.Eventually(t, func() bool { return runs.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	writeFile(t, filepath.Join(root, "cmd", "server", "main.go"), "package main\n\nfunc main() {}\n")
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	settled := runs.Load()
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored\n")
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, settled, runs.Load())

	h.stop(t)
}
