package config

import (
	"sync"
	"time"

	"github.com/dshills/blockstorm/internal/config/watcher"
	"github.com/dshills/blockstorm/internal/logging"
)

// ReloadHandler receives a freshly loaded configuration, or the error that
// prevented loading it.
type ReloadHandler func(cfg *Config, err error)

// Reloader keeps a configuration in sync with its file.
type Reloader struct {
	mu       sync.RWMutex
	path     string
	current  *Config
	handlers []ReloadHandler
	watcher  *watcher.Watcher
	logger   *logging.Logger
}

// NewReloader loads path and starts watching it.
func NewReloader(path string, debounce time.Duration, logger *logging.Logger) (*Reloader, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}
	r := &Reloader{
		path:    path,
		current: cfg,
		logger:  logger.WithCategory(logging.CatConfig),
	}
	w, err := watcher.New(
		watcher.WithDebounce(debounce),
		watcher.WithErrorHandler(func(err error) { r.logger.Warn("watch %s: %v", path, err) }),
	)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Close()
		return nil, err
	}
	w.OnChange(r.onChange)
	r.watcher = w
	return r, nil
}

// Current returns the last successfully loaded configuration.
func (r *Reloader) Current() *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// OnReload registers a handler.
func (r *Reloader) OnReload(h ReloadHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
}

func (r *Reloader) onChange(ev watcher.Event) {
	if ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename {
		r.logger.Info("config %s went away; keeping current settings", ev.Path)
		return
	}
	cfg, err := Load(r.path)

	r.mu.Lock()
	if err == nil {
		r.current = cfg
	}
	handlers := append([]ReloadHandler(nil), r.handlers...)
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("reload %s: %v", r.path, err)
	} else {
		r.logger.Info("reloaded %s", r.path)
	}
	for _, h := range handlers {
		h(cfg, err)
	}
}

// Close stops watching.
func (r *Reloader) Close() error {
	return r.watcher.Close()
}
