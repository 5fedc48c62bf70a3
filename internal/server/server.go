// Package server accepts browser connections and runs one session per
// upgraded socket. Plain HTTP requests get the JSON redirect document
// that tells the extension where the WebSocket lives.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/fakeyudi/ghostedit/internal/editor"
	"github.com/fakeyudi/ghostedit/internal/idle"
	"github.com/fakeyudi/ghostedit/internal/protocol"
	"github.com/fakeyudi/ghostedit/internal/session"
)

// Config holds the server's listening and session settings.
type Config struct {
	Host           string
	Port           uint16
	FromSystemd    bool
	IdleTimeout    time.Duration // 0 disables idle shutdown
	SingleInstance bool
	Session        session.Config
}

// Server owns the listener, the shared editor launcher, and the idle
// countdown.
type Server struct {
	cfg      Config
	launcher *editor.Launcher
	counter  *idle.Counter
	obs      session.Observer
	clock    clockwork.Clock
	log      *slog.Logger

	httpSrv  *http.Server
	upgrader websocket.Upgrader

	ln       net.Listener
	wsPort   uint16
	baseCtx  context.Context
	sessions sync.WaitGroup
}

// New builds a server. A nil observer is allowed.
func New(cfg Config, obs session.Observer, clock clockwork.Clock, log *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		launcher: editor.NewLauncher(cfg.SingleInstance, log),
		obs:      obs,
		clock:    clock,
		log:      log,
		upgrader: websocket.Upgrader{
			// Extension pages connect from moz-extension:// and
			// chrome-extension:// origins, which never match the
			// Host header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	if cfg.IdleTimeout > 0 {
		s.counter = idle.New(clock, cfg.IdleTimeout, log)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Listen binds the server socket, either from the config or from the
// socket systemd passed in. Run calls it if it has not run yet; calling
// it first surfaces bind errors early and makes Port valid.
func (s *Server) Listen() error {
	if s.cfg.FromSystemd {
		listeners, err := activation.Listeners()
		if err != nil {
			return fmt.Errorf("failed to read systemd sockets: %w", err)
		}
		if len(listeners) != 1 {
			return fmt.Errorf("expected exactly one systemd socket, got %d", len(listeners))
		}
		s.ln = listeners[0]
	} else {
		addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(int(s.cfg.Port)))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		s.ln = ln
	}

	// The redirect document must name the real port even when the
	// config said 0 or the socket came from systemd.
	if addr, ok := s.ln.Addr().(*net.TCPAddr); ok {
		s.wsPort = uint16(addr.Port)
	} else {
		s.wsPort = s.cfg.Port
	}
	return nil
}

// Port returns the bound port. Only valid after Listen.
func (s *Server) Port() uint16 {
	return s.wsPort
}

// Run serves until the context is cancelled or the idle timeout fires,
// then shuts down, cancelling any open sessions.
func (s *Server) Run(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	baseCtx, cancelSessions := context.WithCancel(context.Background())
	s.baseCtx = baseCtx
	defer cancelSessions()

	s.log.Info("listening", "addr", s.ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpSrv.Serve(s.ln)
	}()

	idleFired := make(chan struct{})
	if s.counter != nil {
		go func() {
			if err := s.counter.Run(); err != nil {
				s.log.Warn("idle counter stopped", "error", err)
				return
			}
			close(idleFired)
		}()
	}

	select {
	case err := <-serveErr:
		cancelSessions()
		return fmt.Errorf("server stopped unexpectedly: %w", err)
	case <-ctx.Done():
		s.log.Info("shutdown requested")
	case <-idleFired:
	}

	cancelSessions()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	// Shutdown does not track hijacked connections, so give the
	// cancelled sessions a moment to clean up their mirror files.
	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-s.clock.After(5 * time.Second):
		s.log.Warn("sessions did not finish before the shutdown deadline")
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		s.serveRedirect(w)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.sessions.Add(1)
	defer s.sessions.Done()
	if s.counter != nil {
		s.counter.Started()
		defer s.counter.Finished()
	}

	sess := session.New(conn, s.cfg.Session, s.launcher, s.obs, s.clock, s.log)
	if err := sess.Run(s.baseCtx); err != nil {
		if errors.Is(err, context.Canceled) {
			s.log.Info("session cancelled by shutdown")
		} else {
			s.log.Error("session failed", "error", err)
		}
	}
}

func (s *Server) serveRedirect(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(protocol.NewRedirect(s.wsPort)); err != nil {
		s.log.Warn("failed to write redirect document", "error", err)
	}
}
