// Package event contains the press-event primitives: a single-slot
// coalescing signal between a poller and a consumer, and the debounce
// policy applied on the poller side. Time is injectable; the package never
// sleeps.
package event

import "time"

// DebounceWindow is the quiet interval enforced after a detected press
// before another press may be reported.
const DebounceWindow = 200 * time.Millisecond

// Signal is a single-slot coalescing notification. Raising it while an
// unconsumed occurrence is pending has no additional effect; multiple
// presses collapse to one observed event. This loss is deliberate — the
// consumer only needs to know that at least one press happened.
type Signal struct {
	ch chan struct{}
}

// NewSignal creates an unraised Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Raise marks an occurrence. Never blocks.
func (s *Signal) Raise() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// TryConsume reports and clears a pending occurrence. Never blocks.
func (s *Signal) TryConsume() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Debouncer enforces the quiet window on a polled active-level input.
// Not safe for concurrent use; each poller owns one.
type Debouncer struct {
	window     time.Duration
	quietUntil time.Time
}

// NewDebouncer creates a Debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Observe feeds one poll of the input. It reports true when the active
// level is seen outside the quiet window, and re-arms the window. Further
// active observations inside the window report false.
func (d *Debouncer) Observe(pressed bool, now time.Time) bool {
	if !pressed || now.Before(d.quietUntil) {
		return false
	}
	d.quietUntil = now.Add(d.window)
	return true
}
