package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWatcher polls files for modification and invokes a callback when one
// changes. The render command uses it to re-render while a project or
// photo is being edited elsewhere.
type FileWatcher struct {
	interval time.Duration

	mu       sync.Mutex
	paths    []string
	baseline map[string]time.Time
	onChange func(path string)
}

// NewFileWatcher creates a watcher over paths. Symlinks are resolved so an
// editor replacing the target is still seen.
func NewFileWatcher(interval time.Duration, paths ...string) *FileWatcher {
	w := &FileWatcher{
		interval: interval,
		baseline: make(map[string]time.Time, len(paths)),
	}
	for _, p := range paths {
		if real, err := filepath.EvalSymlinks(p); err == nil {
			p = real
		}
		w.paths = append(w.paths, p)
	}
	w.ResetBaseline()
	return w
}

// OnChange sets the callback. It is called from the Run goroutine.
func (w *FileWatcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// Paths returns the watched paths.
func (w *FileWatcher) Paths() []string {
	return append([]string(nil), w.paths...)
}

// Run polls until ctx is done.
func (w *FileWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			changed := w.Poll()
			w.mu.Lock()
			fn := w.onChange
			w.mu.Unlock()
			if fn == nil {
				continue
			}
			for _, p := range changed {
				fn(p)
			}
		}
	}
}

// Poll returns the paths modified since the last poll and advances the
// baseline for them. Missing files are skipped.
func (w *FileWatcher) Poll() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var changed []string
	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.ModTime().After(w.baseline[p]) {
			changed = append(changed, p)
			w.baseline[p] = info.ModTime()
		}
	}
	return changed
}

// ResetBaseline records the current modification times as unchanged.
func (w *FileWatcher) ResetBaseline() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.paths {
		if info, err := os.Stat(p); err == nil {
			w.baseline[p] = info.ModTime()
		}
	}
}
