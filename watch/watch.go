// Package watch reports changes to a fixed set of files. Parent
// directories are watched rather than the files themselves, so editors
// that save by replacing the file are still seen.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a
// change is reported.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a set of files.
type Watcher struct {
	w        *fsnotify.Watcher
	files    map[string]string // cleaned absolute path -> path as given
	debounce time.Duration

	// OnError receives watcher errors. They are dropped when nil.
	OnError func(error)
}

// New starts watching files. A debounce of zero uses DefaultDebounce.
func New(files []string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{w: fw, files: make(map[string]string), debounce: debounce}
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolving %s: %w", f, err)
		}
		w.files[abs] = f
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run calls onChange for every watched file that was written, created or
// replaced, once per debounce period, until ctx is cancelled. The watcher
// is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	defer w.w.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	pending := make(map[string]bool)

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case <-fire:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				onChange(p)
			}

		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			given, watched := w.files[filepath.Clean(ev.Name)]
			if !watched {
				continue
			}
			pending[given] = true
			schedule()

		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			if w.OnError != nil {
				w.OnError(err)
			}
		}
	}
}
