package tasks

import (
	"context"
	"log"
	"time"

	"github.com/dmarques/board-monitor/internal/hal"
)

// Heartbeat toggles the liveness LED forever. It shares no state with the
// other tasks beyond the board handle.
type Heartbeat struct {
	board  hal.DigitalIO
	pin    int
	period time.Duration
	on     bool
}

// NewHeartbeat creates the heartbeat task on the default LED pin.
func NewHeartbeat(board hal.DigitalIO, period time.Duration) *Heartbeat {
	if period <= 0 {
		period = HeartbeatHalfPeriod
	}
	return &Heartbeat{
		board:  board,
		pin:    hal.PinHeartbeatLED,
		period: period,
	}
}

// Step toggles the LED once.
func (h *Heartbeat) Step() {
	h.on = !h.on
	if err := h.board.WritePin(h.pin, h.on); err != nil {
		log.Printf("heartbeat: write pin %d: %v", h.pin, err)
	}
}

// Run toggles the LED every half period until the context ends.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Step()
		}
	}
}
