// Package session runs the life of one edited text field: it mirrors the
// browser's text into a temp file, launches the editor on it, streams
// file saves back over the socket, and cleans up when the editor exits.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/fakeyudi/ghostedit/internal/debounce"
	"github.com/fakeyudi/ghostedit/internal/editor"
	"github.com/fakeyudi/ghostedit/internal/mirror"
	"github.com/fakeyudi/ghostedit/internal/protocol"
	"github.com/fakeyudi/ghostedit/internal/textpos"
	"github.com/fakeyudi/ghostedit/internal/watch"
)

const (
	// DefaultWatchDebounce coalesces the event bursts editors produce
	// on a single save.
	DefaultWatchDebounce = 100 * time.Millisecond

	// DefaultDrainTimeout bounds how long a session waits for the
	// watcher to echo its own write before giving up on it.
	DefaultDrainTimeout = 500 * time.Millisecond
)

// Conn is the subset of *websocket.Conn a session needs.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Config tunes one session.
type Config struct {
	EditorTemplate  string
	InboundDebounce time.Duration // 0 applies every request immediately
	WatchDebounce   time.Duration
	DrainTimeout    time.Duration
}

// Session bridges one browser text field and one editor process.
type Session struct {
	conn     Conn
	cfg      Config
	launcher *editor.Launcher
	obs      Observer
	clock    clockwork.Clock
	log      *slog.Logger

	id         string
	mirror     *mirror.Mirror
	selections []protocol.CursorRange
}

type frame struct {
	messageType int
	data        []byte
}

// New builds a session over an upgraded connection. A nil observer is
// allowed.
func New(conn Conn, cfg Config, launcher *editor.Launcher, obs Observer, clock clockwork.Clock, log *slog.Logger) *Session {
	if obs == nil {
		obs = NopObserver{}
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = DefaultWatchDebounce
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	id := uuid.New().String()
	return &Session{
		conn:     conn,
		cfg:      cfg,
		launcher: launcher,
		obs:      obs,
		clock:    clock,
		log:      log.With("session_id", id),
		id:       id,
	}
}

// Run drives the session until the editor exits, the context is
// cancelled, or a fatal protocol or I/O error occurs. A normal editor
// exit pushes a final snapshot and closes the socket cleanly.
func (s *Session) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := s.readPump(ctx)

	req, err := s.awaitFirstRequest(ctx, frames)
	if err != nil {
		return err
	}

	m, err := mirror.Create(req.Title, req.URL, req.Text)
	if err != nil {
		return err
	}
	s.mirror = m
	defer m.Close()
	s.selections = req.Selections

	// Watch before launching so the very first save cannot slip by.
	watcher, err := watch.New(m.Path(), s.log)
	if err != nil {
		return err
	}
	defer watcher.Close()

	s.obs.SessionOpened(Info{ID: s.id, Title: req.Title, URL: req.URL, Path: m.Path()})
	defer func() { s.obs.SessionClosed(s.id, err) }()

	pos := textpos.Position{Line: 1, Col: 1}
	if len(req.Selections) > 0 {
		pos = textpos.OffsetToLineCol(req.Selections[0].Start, req.Text)
	}

	s.log.Info("session opened",
		"title", req.Title, "url", req.URL, "file", m.Path(),
		"line", pos.Line, "col", pos.Col)

	editorDone := s.launcher.Start(ctx, editor.Request{
		Template: s.cfg.EditorTemplate,
		File:     m.Path(),
		Line:     pos.Line,
		Col:      pos.Col,
		Title:    req.Title,
		URL:      req.URL,
	})

	fileEvents := debounce.New(ctx, s.clock, watcher.Events(), s.cfg.WatchDebounce)
	inbound := debounce.New(ctx, s.clock, frames, s.cfg.InboundDebounce)

	for {
		select {
		case launchErr := <-editorDone:
			if launchErr != nil {
				return fmt.Errorf("editor: %w", launchErr)
			}
			s.log.Info("editor exited, closing session")
			s.finish()
			return nil

		case _, ok := <-fileEvents:
			if !ok {
				fileEvents = nil
				continue
			}
			if err := s.pushSnapshot(); err != nil {
				return err
			}

		case fr, ok := <-inbound:
			if !ok {
				// The browser went away. The editor keeps running;
				// its final save just has nowhere to go.
				inbound = nil
				continue
			}
			if err := s.applyRequest(fr, fileEvents); err != nil {
				return err
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// readPump moves socket reads onto a channel so Run can select over
// them. The channel closes when the connection dies.
func (s *Session) readPump(ctx context.Context) <-chan frame {
	frames := make(chan frame)
	go func() {
		defer close(frames)
		for {
			mt, data, err := s.conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case frames <- frame{messageType: mt, data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return frames
}

func (s *Session) awaitFirstRequest(ctx context.Context, frames <-chan frame) (*protocol.EditRequest, error) {
	select {
	case fr, ok := <-frames:
		if !ok {
			return nil, fmt.Errorf("connection closed before the first edit request")
		}
		if fr.messageType != websocket.TextMessage {
			return nil, fmt.Errorf("first message must be text, got type %d", fr.messageType)
		}
		req, err := protocol.ParseEditRequest(fr.data)
		if err != nil {
			return nil, err
		}
		return req, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// applyRequest writes a browser update into the mirror file unless it is
// an echo of the file's current content.
func (s *Session) applyRequest(fr frame, fileEvents <-chan struct{}) error {
	if fr.messageType != websocket.TextMessage {
		s.log.Warn("ignoring non-text message", "type", fr.messageType)
		return nil
	}
	req, err := protocol.ParseEditRequest(fr.data)
	if err != nil {
		return err
	}
	s.selections = req.Selections

	wrote, err := s.mirror.MaybeUpdate(req.Text)
	if err != nil {
		return err
	}
	if wrote {
		s.drainSelfEvent(fileEvents)
		s.obs.RequestApplied(s.id)
		s.log.Debug("edit request applied", "bytes", len(req.Text))
	}
	return nil
}

// drainSelfEvent swallows the watcher event caused by the session's own
// write so it does not bounce straight back to the browser.
func (s *Session) drainSelfEvent(fileEvents <-chan struct{}) {
	if fileEvents == nil {
		return
	}
	timer := s.clock.NewTimer(s.cfg.DrainTimeout)
	defer timer.Stop()
	select {
	case <-fileEvents:
	case <-timer.Chan():
		s.log.Warn("no watcher echo after writing the mirror file")
	}
}

func (s *Session) pushSnapshot() error {
	text, err := s.mirror.ReadCurrent()
	if err != nil {
		return err
	}
	sels := s.selections
	if sels == nil {
		sels = []protocol.CursorRange{}
	}
	data, err := json.Marshal(protocol.TextSnapshot{Text: text, Selections: sels})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send snapshot: %w", err)
	}
	s.obs.SnapshotSent(s.id)
	s.log.Debug("snapshot sent", "bytes", len(text))
	return nil
}

// finish pushes the final state and says goodbye. By now the browser may
// be gone, so failures only get logged.
func (s *Session) finish() {
	if err := s.pushSnapshot(); err != nil {
		s.log.Warn("failed to push final snapshot", "error", err)
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := s.conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		s.log.Debug("failed to send close frame", "error", err)
	}
}
