package config

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Watcher polls a configuration file for modification-time changes and
// reloads it through the loader, invoking callbacks with the new Config.
// Polling keeps the watcher portable; change latency is bounded by the
// interval.
type Watcher struct {
	mu        sync.Mutex
	loader    *Loader
	path      string
	interval  time.Duration
	callbacks []func(*Config)
	lastMod   time.Time
	logger    *zap.Logger
}

// NewWatcher creates a watcher for the loader's config path. A zero
// interval defaults to 10 seconds.
func NewWatcher(loader *Loader, interval time.Duration, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		loader:   loader,
		path:     loader.configPath,
		interval: interval,
		logger:   logger,
	}
}

// OnChange registers a callback invoked after each successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Run polls until the context is done. A reload that fails validation is
// logged and skipped; the previous configuration stays in effect.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if info, err := os.Stat(w.path); err == nil {
		w.lastMod = info.ModTime()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		return
	}
	w.mu.Lock()
	changed := info.ModTime().After(w.lastMod)
	if changed {
		w.lastMod = info.ModTime()
	}
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	if !changed {
		return
	}

	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous configuration",
			zap.String("path", w.path), zap.Error(err))
		return
	}

	w.logger.Info("configuration reloaded", zap.String("path", w.path))
	for _, fn := range callbacks {
		fn(cfg)
	}
}
