// Package dropzone turns a watched directory into a drop target: files that
// land in it and stop changing are handed, one by one, to a Handler.
package dropzone

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/terratrac/terratrac-go/internal/config"
)

// State of the drop target.
type State int

const (
	// Idle means nothing is being dropped.
	Idle State = iota
	// Highlighted means at least one file is arriving but has not settled.
	Highlighted
)

func (s State) String() string {
	if s == Highlighted {
		return "highlighted"
	}
	return "idle"
}

// DefaultSettle is how long a file must stay unchanged before it drops.
const DefaultSettle = 500 * time.Millisecond

var tempSuffixes = []string{"~", ".part", ".crdownload", ".tmp", ".swp"}

// Handler receives each dropped file.
type Handler func(ctx context.Context, path string) error

// DropHandler only logs the drop.
func DropHandler(logger *slog.Logger) Handler {
	return func(_ context.Context, path string) error {
		logger.Info("file dropped", "path", path)
		return nil
	}
}

// Options configures a Zone.
type Options struct {
	// Pattern is a doublestar pattern matched against lower-cased base names.
	Pattern string
	Settle  time.Duration
	Logger  *slog.Logger
}

// Stats counts what the zone has seen.
type Stats struct {
	Dropped    int
	Suppressed int
	Failed     int
}

// Zone watches one directory.
type Zone struct {
	dir     string
	pattern string
	settle  time.Duration
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]time.Time
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	stats   Stats
}

// New creates a stopped zone for dir.
func New(dir string, handler Handler, opts Options) (*Zone, error) {
	if opts.Pattern == "" {
		opts.Pattern = config.DefaultDropPattern
	}
	if !doublestar.ValidatePattern(opts.Pattern) {
		return nil, fmt.Errorf("invalid drop pattern %q", opts.Pattern)
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if handler == nil {
		handler = DropHandler(opts.Logger)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("drop folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("drop folder %s is not a directory", dir)
	}

	return &Zone{
		dir:     dir,
		pattern: opts.Pattern,
		settle:  opts.Settle,
		handler: handler,
		logger:  opts.Logger.With("dir", dir),
		pending: make(map[string]time.Time),
	}, nil
}

// Dir returns the watched directory.
func (z *Zone) Dir() string { return z.dir }

// Start begins watching. It does not block.
func (z *Zone) Start(ctx context.Context) error {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.running {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(z.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", z.dir, err)
	}

	z.watcher = w
	z.running = true
	z.stopCh = make(chan struct{})
	z.doneCh = make(chan struct{})
	go z.run(ctx, w, z.stopCh, z.doneCh)

	z.logger.Debug("drop folder watching", "pattern", z.pattern)
	return nil
}

// Stop halts the watcher and waits for an in-flight handler to return.
func (z *Zone) Stop() {
	z.mu.Lock()
	if !z.running {
		z.mu.Unlock()
		return
	}
	z.running = false
	w, stopCh, doneCh := z.watcher, z.stopCh, z.doneCh
	z.mu.Unlock()

	close(stopCh)
	<-doneCh

	if err := w.Close(); err != nil {
		z.logger.Error("close watcher", "error", err)
	}

	z.mu.Lock()
	clear(z.pending)
	z.mu.Unlock()
}

// State reports whether a file is arriving.
func (z *Zone) State() State {
	z.mu.Lock()
	defer z.mu.Unlock()
	if len(z.pending) > 0 {
		return Highlighted
	}
	return Idle
}

// Stats returns a copy of the counters.
func (z *Zone) Stats() Stats {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.stats
}

// Accepts reports whether path would be forwarded to the handler.
func (z *Zone) Accepts(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if name == "" || name == "." || strings.HasPrefix(name, ".") {
		return false
	}
	for _, suffix := range tempSuffixes {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	ok, err := doublestar.Match(z.pattern, name)
	return err == nil && ok
}

// Drop forwards paths to the handler in order, skipping suppressed names
// and directories. Handler errors are collected, not fatal.
func (z *Zone) Drop(ctx context.Context, paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := z.dispatch(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(p), err))
		}
	}
	return errors.Join(errs...)
}

// Existing drops the matching files already present in the folder.
func (z *Zone) Existing(ctx context.Context) (int, error) {
	matches, err := doublestar.Glob(os.DirFS(z.dir), z.pattern,
		doublestar.WithFilesOnly(), doublestar.WithCaseInsensitive())
	if err != nil {
		return 0, fmt.Errorf("glob %s: %w", z.dir, err)
	}
	sort.Strings(matches)

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(z.dir, filepath.FromSlash(m))
		if z.Accepts(path) {
			paths = append(paths, path)
		}
	}
	return len(paths), z.Drop(ctx, paths...)
}

func (z *Zone) dispatch(ctx context.Context, path string) error {
	if !z.Accepts(path) {
		z.suppress(path, "name")
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			z.suppress(path, "gone")
			return nil
		}
		return err
	}
	if !info.Mode().IsRegular() {
		z.suppress(path, "not a file")
		return nil
	}

	z.logger.Info("file dropped", "path", path, "bytes", info.Size())
	if err := z.handler(ctx, path); err != nil {
		z.mu.Lock()
		z.stats.Failed++
		z.mu.Unlock()
		z.logger.Warn("drop handler failed", "path", path, "error", err)
		return err
	}

	z.mu.Lock()
	z.stats.Dropped++
	z.mu.Unlock()
	return nil
}

func (z *Zone) suppress(path, reason string) {
	z.mu.Lock()
	z.stats.Suppressed++
	z.mu.Unlock()
	z.logger.Debug("drop suppressed", "path", path, "reason", reason)
}

func (z *Zone) run(ctx context.Context, w *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	tick := z.settle / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-stopCh:
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			z.handleEvent(event)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			z.logger.Error("watcher error", "error", err)

		case now := <-ticker.C:
			for _, path := range z.settled(now) {
				_ = z.dispatch(ctx, path)
			}
		}
	}
}

func (z *Zone) handleEvent(event fsnotify.Event) {
	z.mu.Lock()
	defer z.mu.Unlock()

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(z.pending, event.Name)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if !z.Accepts(event.Name) {
			return
		}
		z.pending[event.Name] = time.Now()
	}
}

// settled removes and returns the pending files quiet for the settle period.
func (z *Zone) settled(now time.Time) []string {
	z.mu.Lock()
	defer z.mu.Unlock()

	var out []string
	for path, last := range z.pending {
		if now.Sub(last) >= z.settle {
			out = append(out, path)
			delete(z.pending, path)
		}
	}
	sort.Strings(out)
	return out
}
