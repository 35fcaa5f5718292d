package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the event storms editors produce on save
// (write + chmod, or rename + create) into a single notification.
const watchDebounce = 250 * time.Millisecond

// Watcher emits a notification whenever the config file changes on disk.
type Watcher struct {
	path   string
	logger *slog.Logger

	fsw    *fsnotify.Watcher
	events chan struct{}
}

// NewWatcher creates a watcher for the given config file. The file's
// directory is watched rather than the file itself so that rename-based
// saves keep being observed.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}

	return &Watcher{
		path:   abs,
		logger: logger,
		fsw:    fsw,
		events: make(chan struct{}, 1),
	}, nil
}

// Events returns the change-notification channel. It carries at most one
// pending notification; coalescing is fine because consumers re-read the
// file on every event.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("config file event", "op", ev.Op.String())
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				debounce.Reset(watchDebounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			select {
			case w.events <- struct{}{}:
			default:
			}
			w.logger.Debug("config change notification emitted")

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}
