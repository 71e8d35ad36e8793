package edit

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-usage-board/internal/util"
)

const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a fixed set of files. Editors often replace a
// file instead of writing it in place, so the parent directories are
// watched and events are filtered by name.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	events   chan string
}

func NewWatcher(paths []string, debounce time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  watcher,
		files:    make(map[string]bool, len(paths)),
		debounce: debounce,
		events:   make(chan string, 1),
	}

	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run forwards changes until ctx is done. Bursts of events inside the
// debounce window are reported once with the last changed path.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.events <- pending:
			default:
				// a change is already queued
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// Events yields the path of each debounced change.
func (w *Watcher) Events() <-chan string {
	return w.events
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
