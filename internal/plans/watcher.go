package plans

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Registry when its YAML file changes on disk.
type Watcher struct {
	registry *Registry
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once

	mu     sync.Mutex
	onLoad func(error)
}

func NewWatcher(registry *Registry, path string) *Watcher {
	return &Watcher{
		registry: registry,
		path:     path,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// OnReload registers a callback invoked after every reload attempt. It may
// be called while the watcher is running.
func (w *Watcher) OnReload(fn func(error)) {
	w.mu.Lock()
	w.onLoad = fn
	w.mu.Unlock()
}

// Start watches the file's directory so editors that replace the file are
// picked up too.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.watcher = fw
	go w.run()
	return nil
}

func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			<-w.doneCh
		}
	})
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	defer w.watcher.Close()

	target := filepath.Clean(w.path)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("plans watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err == nil {
		var list []Plan
		list, err = Parse(data)
		if err == nil {
			w.registry.Replace(list)
			slog.Info("plans reloaded", "path", w.path, "plans", len(list))
		}
	}
	if err != nil {
		slog.Error("plans reload failed, keeping previous catalogue", "path", w.path, "error", err)
	}
	w.mu.Lock()
	fn := w.onLoad
	w.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
