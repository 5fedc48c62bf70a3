package watch

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWatchedFile(t *testing.T) (string, *Watcher) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mirror.txt")
	if err := os.WriteFile(path, []byte("initial\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	w, err := New(path, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	return path, w
}

func TestWriteEmitsEvent(t *testing.T) {
	path, w := newWatchedFile(t)

	if err := os.WriteFile(path, []byte("saved\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("no event after writing the watched file")
	}
}

func TestAtomicReplaceEmitsEvent(t *testing.T) {
	path, w := newWatchedFile(t)

	// Save the way many editors do: temp file, then rename over.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte("replaced\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("no event after replacing the watched file")
	}
}

func TestSiblingFilesAreIgnored(t *testing.T) {
	path, w := newWatchedFile(t)

	swap := filepath.Join(filepath.Dir(path), ".mirror.txt.swp")
	if err := os.WriteFile(swap, []byte("swap"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Events():
		t.Fatal("sibling file write must not signal")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCloseClosesEvents(t *testing.T) {
	_, w := newWatchedFile(t)

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	for {
		select {
		case _, ok := <-w.Events():
			if !ok {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("events channel did not close")
		}
	}
}
