// Package idle shuts the server down after a quiet period with no sessions.
package idle

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Event marks a session starting or finishing.
type Event int

const (
	SessionStarted Event = iota
	SessionFinished
)

// ErrEventsClosed is returned when the event stream closes before the
// idle timeout fires.
var ErrEventsClosed = errors.New("idle counter events closed")

// Counter tracks how many sessions are active and reports when the
// server has been idle for the configured timeout. The countdown only
// runs while no session is open; any session activity resets it.
type Counter struct {
	clock   clockwork.Clock
	timeout time.Duration
	events  chan Event
	log     *slog.Logger
}

// New builds a counter. The timeout must be positive.
func New(clock clockwork.Clock, timeout time.Duration, log *slog.Logger) *Counter {
	return &Counter{
		clock:   clock,
		timeout: timeout,
		events:  make(chan Event, 64),
		log:     log,
	}
}

// Started records a session opening. It never blocks.
func (c *Counter) Started() {
	c.send(SessionStarted)
}

// Finished records a session ending. It never blocks.
func (c *Counter) Finished() {
	c.send(SessionFinished)
}

func (c *Counter) send(e Event) {
	select {
	case c.events <- e:
	default:
		// Dropping an event beats blocking a session teardown once
		// Run has stopped draining.
	}
}

// Run blocks until the server stays idle for the full timeout, then
// returns nil. It returns ErrEventsClosed if the stream closes first.
func (c *Counter) Run() error {
	active := 0
	for {
		if active > 0 {
			e, ok := <-c.events
			if !ok {
				return ErrEventsClosed
			}
			active = apply(active, e)
			continue
		}

		timer := c.clock.NewTimer(c.timeout)
		select {
		case e, ok := <-c.events:
			timer.Stop()
			if !ok {
				return ErrEventsClosed
			}
			active = apply(active, e)
		case <-timer.Chan():
			c.log.Info("idle timeout reached, shutting down", "timeout", c.timeout)
			return nil
		}
	}
}

func apply(active int, e Event) int {
	switch e {
	case SessionStarted:
		return active + 1
	case SessionFinished:
		if active > 0 {
			return active - 1
		}
	}
	return active
}
