package tasks

import (
	"context"
	"log"
	"time"

	"github.com/dmarques/board-monitor/internal/event"
	"github.com/dmarques/board-monitor/internal/hal"
)

// ButtonPoller watches a push button and raises the press signal on each
// debounced press. The button is wired active-low: a raw low level means
// pressed.
type ButtonPoller struct {
	deps   Deps
	pin    int
	period time.Duration
	deb    *event.Debouncer
}

// NewButtonPoller creates the poller for button A with the given debounce
// quiet window.
func NewButtonPoller(deps Deps, period, debounce time.Duration) *ButtonPoller {
	if period <= 0 {
		period = ButtonPollPeriod
	}
	if debounce <= 0 {
		debounce = event.DebounceWindow
	}
	return &ButtonPoller{
		deps:   deps,
		pin:    hal.PinButtonA,
		period: period,
		deb:    event.NewDebouncer(debounce),
	}
}

// Step performs one poll. Returns whether a debounced press was reported.
func (b *ButtonPoller) Step(now time.Time) bool {
	raw, err := b.deps.Board.ReadPin(b.pin)
	if err != nil {
		log.Printf("button-poll: read pin %d: %v", b.pin, err)
		return false
	}

	pressed := !raw // active-low
	if !b.deb.Observe(pressed, now) {
		return false
	}

	b.deps.Presses.Raise()
	b.deps.Status.RecordPress()
	return true
}

// Run polls at the fixed period until the context ends.
func (b *ButtonPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(b.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Step(time.Now())
		}
	}
}
