// Package debounce collapses bursts of channel events into the most
// recent one.
package debounce

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// New wraps src so that each received item replaces the previously
// buffered one and is emitted only after wait has elapsed with no newer
// item. Items immediately available on src are drained before the
// deadline is armed, so a synchronous burst collapses to its newest
// item. A wait of zero disables buffering and forwards every item.
//
// The returned channel closes after src closes; a still-buffered item
// is flushed first. Cancelling ctx stops the operator without flushing.
func New[T any](ctx context.Context, clock clockwork.Clock, src <-chan T, wait time.Duration) <-chan T {
	out := make(chan T)
	if wait <= 0 {
		go passthrough(ctx, src, out)
	} else {
		go run(ctx, clock, src, out, wait)
	}
	return out
}

func passthrough[T any](ctx context.Context, src <-chan T, out chan<- T) {
	defer close(out)
	for {
		select {
		case v, ok := <-src:
			if !ok {
				return
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func run[T any](ctx context.Context, clock clockwork.Clock, src <-chan T, out chan<- T, wait time.Duration) {
	defer close(out)

	var (
		buffered T
		have     bool
		timer    clockwork.Timer
		fire     <-chan time.Time // nil until armed; a nil channel never selects
	)

	arm := func() {
		if timer == nil {
			timer = clock.NewTimer(wait)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.Chan():
				default:
				}
			}
			timer.Reset(wait)
		}
		fire = timer.Chan()
	}

	flush := func() bool {
		if !have {
			return true
		}
		select {
		case out <- buffered:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		// Take everything already sitting on src first, so a burst is
		// reduced to its newest item before any waiting happens.
	drain:
		for {
			select {
			case v, ok := <-src:
				if !ok {
					flush()
					return
				}
				buffered, have = v, true
				arm()
			default:
				break drain
			}
		}

		select {
		case v, ok := <-src:
			if !ok {
				flush()
				return
			}
			buffered, have = v, true
			arm()
		case <-fire:
			if !flush() {
				return
			}
			have = false
			fire = nil
		case <-ctx.Done():
			return
		}
	}
}
