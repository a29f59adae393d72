package tasks

import (
	"context"
	"log"
	"time"

	"github.com/dmarques/board-monitor/internal/alarm"
	"github.com/dmarques/board-monitor/internal/hal"
	"github.com/dmarques/board-monitor/internal/sampling"
	"github.com/dmarques/board-monitor/internal/status"
	"github.com/dmarques/board-monitor/internal/telemetry"
)

// MonitorConfig tunes the monitor task. Zero values select the defaults;
// tests use zero ReceiveTimeout/AckPulse so steps complete instantly.
type MonitorConfig struct {
	Threshold         float64
	ReceiveTimeout    time.Duration
	AckPulse          time.Duration
	HeartbeatInterval time.Duration // 0 disables the MQTT heartbeat
}

// Monitor is the actuator task: it consumes press events and sensor
// samples, drives the buzzer on alarm transitions, and owns the alarm state
// exclusively.
type Monitor struct {
	deps Deps
	cfg  MonitorConfig

	alarm         *alarm.Monitor
	lastHeartbeat time.Time
}

// NewMonitor creates the monitor task.
func NewMonitor(deps Deps, cfg MonitorConfig) *Monitor {
	if cfg.Threshold <= 0 {
		cfg.Threshold = alarm.ThresholdVolts
	}
	return &Monitor{
		deps:  deps,
		cfg:   cfg,
		alarm: alarm.NewMonitor(cfg.Threshold),
	}
}

// Step performs one monitor cycle: a non-blocking press consume, a bounded
// wait on the sample channel, and the periodic bookkeeping.
func (m *Monitor) Step(now time.Time) {
	if m.deps.Presses.TryConsume() {
		m.ackPress(now)
	}

	if s, ok := m.deps.Samples.Receive(m.cfg.ReceiveTimeout); ok {
		m.applySample(s, now)
	}

	m.checkHeartbeat(now)
}

// ackPress pulses the green LED and reports the press.
func (m *Monitor) ackPress(now time.Time) {
	m.deps.Console.TryPrintf("Button press acknowledged")

	if err := m.deps.Board.WritePin(hal.PinGreenLED, true); err != nil {
		log.Printf("monitor: ack LED on: %v", err)
	}
	if m.cfg.AckPulse > 0 {
		time.Sleep(m.cfg.AckPulse)
	}
	if err := m.deps.Board.WritePin(hal.PinGreenLED, false); err != nil {
		log.Printf("monitor: ack LED off: %v", err)
	}

	if m.deps.Telemetry != nil {
		err := m.deps.Telemetry.Publish(telemetry.Event{
			Timestamp: now,
			Type:      telemetry.EventPress,
			Alarm:     m.alarm.State(),
		})
		if err != nil {
			log.Printf("monitor: publish press: %v", err)
		}
	}
}

// applySample feeds one sample to the alarm state machine. Only a state
// transition touches the buzzer; repeated evaluations on the same side of
// the threshold write nothing.
func (m *Monitor) applySample(s sampling.Sample, now time.Time) {
	tr := m.alarm.Evaluate(s, now)
	if tr != nil {
		if err := m.deps.Board.SetDuty(tr.Duty); err != nil {
			log.Printf("monitor: set duty %d: %v", tr.Duty, err)
		}
		m.deps.Console.TryPrintf("Alarm %s (X: %.2fV, Y: %.2fV)", tr.To, tr.X, tr.Y)

		if m.deps.Telemetry != nil {
			evType := telemetry.EventAlarmOn
			if tr.To == alarm.StateIdle {
				evType = telemetry.EventAlarmOff
			}
			err := m.deps.Telemetry.Publish(telemetry.Event{
				Timestamp: now,
				Type:      evType,
				Alarm:     tr.To,
				X:         tr.X,
				Y:         tr.Y,
			})
			if err != nil {
				log.Printf("monitor: publish alarm: %v", err)
			}
		}
	}

	m.deps.Status.SetAlarm(m.alarm.State(), m.alarm.CountsSnapshot())
}

// checkHeartbeat publishes the periodic MQTT system heartbeat with a full
// status snapshot.
func (m *Monitor) checkHeartbeat(now time.Time) {
	if m.cfg.HeartbeatInterval <= 0 || m.deps.Telemetry == nil {
		return
	}
	if m.lastHeartbeat.IsZero() {
		m.lastHeartbeat = now
		return
	}
	if now.Sub(m.lastHeartbeat) < m.cfg.HeartbeatInterval {
		return
	}
	m.lastHeartbeat = now

	if cs, ok := m.deps.Telemetry.(telemetry.ConnectionStatus); ok {
		m.deps.Status.SetMQTTConnected(cs.IsConnected())
	}
	snap := m.deps.Status.Snapshot()
	err := m.deps.Telemetry.PublishSystem(telemetry.SystemEvent{
		Timestamp:  now,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	})
	if err != nil {
		log.Printf("monitor: heartbeat publish: %v", err)
	}
}

// AlarmState returns the current alarm state. For status queries only; the
// state itself is owned by this task.
func (m *Monitor) AlarmState() alarm.State {
	return m.alarm.State()
}

// Run cycles at the fixed period until the context ends.
func (m *Monitor) Run(ctx context.Context) {
	if m.cfg.ReceiveTimeout <= 0 {
		m.cfg.ReceiveTimeout = MonitorReceiveTimeout
	}
	if m.cfg.AckPulse <= 0 {
		m.cfg.AckPulse = AckPulse
	}

	ticker := time.NewTicker(MonitorPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Step(time.Now())
		}
	}
}
