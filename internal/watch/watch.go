// Package watch signals saves of a single file.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports writes to one file. The parent directory is watched
// rather than the file itself so editors that save by writing a temp
// file and renaming it over the original are still seen.
type Watcher struct {
	fs     *fsnotify.Watcher
	events chan struct{}
}

// New starts watching the file at path. Signals are coalesced: a burst
// of writes may produce a single event.
func New(path string, log *slog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{fs: fs, events: make(chan struct{}, 1)}
	go w.pump(filepath.Base(path), log)
	return w, nil
}

// Events signals once per observed save. The channel closes when the
// watcher is closed.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops watching and closes the events channel.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) pump(name string, log *slog.Logger) {
	defer close(w.events)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			// Editors drop swap and backup files in the same directory.
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				select {
				case w.events <- struct{}{}:
				default:
				}
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// Watch errors don't end the session; the next save may
			// still come through.
			log.Warn("file watcher error", "error", err)
		}
	}
}
