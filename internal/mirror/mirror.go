// Package mirror manages the temp file that mirrors one browser text field.
// Each session gets its own directory so editors that write sibling files
// (swap files, backups) never collide with another session.
package mirror

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Hosts whose text fields are markdown by convention.
var markdownHosts = []string{"github.com", "gitlab.com", "codeberg.org"}

// Mirror is the on-disk copy of a browser text field. It remembers the
// content hash and mtime of its last own write so that echoed updates
// from the browser can be told apart from real edits.
type Mirror struct {
	dir   string
	path  string
	hash  [sha256.Size]byte
	mtime time.Time
}

// Create makes a fresh mirror directory and writes the initial text into
// a file named after the page title, with an extension derived from the
// page URL.
func Create(title, pageURL, text string) (*Mirror, error) {
	dir, err := os.MkdirTemp("", "ghostedit-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create mirror directory: %w", err)
	}

	m := &Mirror{
		dir:  dir,
		path: filepath.Join(dir, fileName(title)+extensionFor(pageURL)),
	}
	if err := m.write(text); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return m, nil
}

// Path returns the mirror file location.
func (m *Mirror) Path() string {
	return m.path
}

// MaybeUpdate writes text to the mirror file unless it is an echo of the
// mirror's current content. It reports whether the file was written.
func (m *Mirror) MaybeUpdate(text string) (bool, error) {
	if sha256.Sum256([]byte(text)) == m.hash {
		info, err := os.Stat(m.path)
		if err == nil && info.ModTime().Equal(m.mtime) {
			return false, nil
		}
	}
	if err := m.write(text); err != nil {
		return false, err
	}
	return true, nil
}

// ReadCurrent returns the mirror file content with at most one trailing
// newline removed, and arms echo detection for that content.
func (m *Mirror) ReadCurrent() (string, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return "", fmt.Errorf("failed to read mirror file: %w", err)
	}
	text := strings.TrimSuffix(string(data), "\n")

	m.hash = sha256.Sum256([]byte(text))
	if info, err := os.Stat(m.path); err == nil {
		m.mtime = info.ModTime()
	}
	return text, nil
}

// Close removes the mirror directory and everything in it.
func (m *Mirror) Close() error {
	return os.RemoveAll(m.dir)
}

func (m *Mirror) write(text string) error {
	data := []byte(text)
	if !strings.HasSuffix(text, "\n") {
		data = append(data, '\n')
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write mirror file: %w", err)
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return fmt.Errorf("failed to stat mirror file: %w", err)
	}
	m.hash = sha256.Sum256([]byte(text))
	m.mtime = info.ModTime()
	return nil
}

// fileName derives a safe file stem from the page title: the first 16
// runes, with path and whitespace characters replaced by dashes.
func fileName(title string) string {
	if title == "" {
		return "buffer"
	}
	runes := []rune(title)
	if len(runes) > 16 {
		runes = runes[:16]
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', '\r', '\n', '\t':
			return '-'
		}
		return r
	}, string(runes))
}

// extensionFor picks the file extension from the page URL so editors get
// markdown highlighting on forges that render it.
func extensionFor(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ".txt"
	}
	host := u.Hostname()
	for _, h := range markdownHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return ".md"
		}
	}
	return ".txt"
}
