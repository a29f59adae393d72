// Package telemetry publishes board events over MQTT, with abstraction for
// testing. Publishing is best-effort: failures are reported to the caller
// but must never stall a task.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/dmarques/board-monitor/internal/alarm"
)

// Topic is the MQTT topic for board events.
const Topic = "bench/board/monitor/events"

// TopicSystem carries startup, shutdown, and heartbeat messages.
const TopicSystem = "bench/board/monitor/system"

// EventType identifies a board event.
type EventType string

const (
	EventAlarmOn  EventType = "ALARM_ON"
	EventAlarmOff EventType = "ALARM_OFF"
	EventPress    EventType = "BUTTON_PRESS"
)

// Event represents a board event to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Alarm     alarm.State
	X         float64
	Y         float64
}

// Publisher is what the tasks see. A publish error is reported to the
// caller and logged there; it never takes a task down.
type Publisher interface {
	Publish(event Event) error
	PublishSystem(event SystemEvent) error
	Close() error
}

// ConnectionStatus is implemented by publishers that can say whether the
// broker link is up.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle message on TopicSystem.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // shutdown signal name, empty otherwise
	RawPayload []byte // pre-rendered body; overrides FormatSystemPayload when set
	Retained   bool   // ask the broker to retain the message
}

// Payload is the wire envelope for board events.
type Payload struct {
	Board BoardPayload `json:"board"`
}

// BoardPayload is the board-event body.
type BoardPayload struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	Alarm     string  `json:"alarm"`
	XVolts    float64 `json:"x_volts"`
	YVolts    float64 `json:"y_volts"`
}

// FormatPayload renders the JSON body for a board event.
func FormatPayload(event Event) ([]byte, error) {
	body := BoardPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Alarm:     string(event.Alarm),
		XVolts:    event.X,
		YVolts:    event.Y,
	}
	return json.Marshal(Payload{Board: body})
}

// SystemPayload is the wire envelope for lifecycle events that carry no
// status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner is the lifecycle-event body.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload renders the JSON body for a lifecycle event. Events
// with a RawPayload (full status snapshots built by the status package)
// pass through unchanged.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	body := SystemPayloadInner{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     event.Event,
		Reason:    event.Reason,
	}
	return json.Marshal(SystemPayload{System: body})
}
