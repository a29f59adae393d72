// Package alarm contains the pure threshold/actuation state machine.
// This package has NO external dependencies (no GPIO, PWM, or time.Sleep).
// Time is always injectable via time.Time parameters.
package alarm

import (
	"time"

	"github.com/dmarques/board-monitor/internal/hal"
	"github.com/dmarques/board-monitor/internal/sampling"
)

// State represents the alarm condition.
type State string

const (
	StateIdle   State = "IDLE"
	StateActive State = "ACTIVE"
)

// ThresholdVolts is the per-axis voltage above which the alarm activates.
const ThresholdVolts = 3.00

// Duty levels written on transitions.
const (
	ActiveDuty uint16 = hal.PWMWrap / 2
	IdleDuty   uint16 = 0
)

// Transition describes one edge of the alarm condition. The Duty field is
// the single peripheral write the transition calls for.
type Transition struct {
	To   State
	Duty uint16
	Time time.Time
	// Axis voltages at the transition, for diagnostics/telemetry.
	X float64
	Y float64
}

// Counts tracks state transitions since startup.
type Counts struct {
	Activations int
	Clears      int
}

// Monitor evaluates samples against the threshold and reports transitions.
// Owned exclusively by the monitor task; not safe for concurrent use.
type Monitor struct {
	threshold float64
	state     State
	counts    Counts
}

// NewMonitor creates a Monitor in the Idle state.
func NewMonitor(threshold float64) *Monitor {
	return &Monitor{
		threshold: threshold,
		state:     StateIdle,
	}
}

// Evaluate feeds one sample. It returns a Transition only when the alarm
// condition changes edge; repeated evaluations on the same side of the
// threshold return nil so the actuator is never reprogrammed redundantly.
func (m *Monitor) Evaluate(s sampling.Sample, now time.Time) *Transition {
	exceeded := s.X > m.threshold || s.Y > m.threshold

	switch {
	case exceeded && m.state == StateIdle:
		m.state = StateActive
		m.counts.Activations++
		return &Transition{To: StateActive, Duty: ActiveDuty, Time: now, X: s.X, Y: s.Y}
	case !exceeded && m.state == StateActive:
		m.state = StateIdle
		m.counts.Clears++
		return &Transition{To: StateIdle, Duty: IdleDuty, Time: now, X: s.X, Y: s.Y}
	}
	return nil
}

// State returns the current alarm state.
func (m *Monitor) State() State {
	return m.state
}

// CountsSnapshot returns the transition counts so far.
func (m *Monitor) CountsSnapshot() Counts {
	return m.counts
}
