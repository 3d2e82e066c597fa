package config

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads non-identity settings from the config file whenever it
// changes on disk, without restarting the process. Credentials
// (PlatformConfig.APIID/APIHash/PhoneNumber) are intentionally left alone
// on reload — see SPEC_FULL.md §3.2.
type Watcher struct {
	path    string
	current *Config
	watcher *fsnotify.Watcher
	onLoad  func(*Config)
	stopCh  chan struct{}
}

// NewWatcher starts watching path's parent directory for changes and
// invokes onLoad with a freshly-loaded Config each time the file settles.
// Watching the directory (not the file) survives editors that replace the
// file via rename-on-save, the same reasoning the example hot-reloader
// applies to its patterns directory.
func NewWatcher(path string, initial *Config, onLoad func(*Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	cw := &Watcher{
		path:    path,
		current: initial,
		watcher: w,
		onLoad:  onLoad,
		stopCh:  make(chan struct{}),
	}
	go cw.loop()
	return cw, nil
}

func (w *Watcher) loop() {
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(300*time.Millisecond, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config.watch.error", "error", err)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("config.reload.failed", "path", w.path, "error", err)
		return
	}
	slog.Info("config.reloaded", "path", w.path, "hash", cfg.Hash())
	w.onLoad(cfg)
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}
