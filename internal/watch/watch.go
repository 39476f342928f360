// Package watch reports changes to the document currently on screen.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor save bursts into one callback.
const DefaultDebounce = 200 * time.Millisecond

// Callback is called with the watched path after it changed.
type Callback func(path string)

// Watcher follows a single file. Its parent directory is watched so that
// editors which save by renaming over the file are seen too.
type Watcher struct {
	debounce time.Duration
	logger   *slog.Logger
	cb       Callback

	mu       sync.Mutex
	target   string
	retarget chan struct{}
}

// New creates a Watcher. Nothing is watched until Track is called.
func New(debounce time.Duration, logger *slog.Logger, cb Callback) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		debounce: debounce,
		logger:   logger,
		cb:       cb,
		retarget: make(chan struct{}, 1),
	}
}

// Track switches the watch to path. It never blocks.
func (w *Watcher) Track(path string) {
	w.mu.Lock()
	w.target = path
	w.mu.Unlock()
	select {
	case w.retarget <- struct{}{}:
	default:
	}
}

// Target returns the tracked path.
func (w *Watcher) Target() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.target
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	w.logger.Info("watcher: started")

	var (
		dir      string
		target   string
		timer    *time.Timer
		timerCh  <-chan time.Time
		schedule = func() {
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		}
	)

	// Pick up a Track call made before Run started.
	select {
	case w.retarget <- struct{}{}:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-w.retarget:
			target = w.Target()
			if target == "" {
				continue
			}
			next := filepath.Dir(target)
			if next == dir {
				continue
			}
			if dir != "" {
				_ = fw.Remove(dir)
			}
			if err := fw.Add(next); err != nil {
				w.logger.Warn("watcher: add dir failed",
					slog.String("path", next),
					slog.String("error", err.Error()))
				dir = ""
				continue
			}
			dir = next
			w.logger.Debug("watcher: tracking", slog.String("path", target))

		case <-timerCh:
			if target != "" && w.cb != nil {
				w.cb(target)
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				schedule()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
