package status

import (
	"encoding/json"
	"time"
)

// StatusJSON wraps the status body under a "status" key so MQTT consumers
// and the web endpoint share one shape.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner is the status body itself.
type StatusInner struct {
	Event          string       `json:"event,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	Alarm          string       `json:"alarm"`
	XVolts         *float64     `json:"x_volts,omitempty"`
	YVolts         *float64     `json:"y_volts,omitempty"`
	MicVolts       *float64     `json:"mic_volts,omitempty"`
	SamplesSent    uint64       `json:"samples_sent"`
	SamplesDropped uint64       `json:"samples_dropped"`
	Presses        int          `json:"button_presses"`
	SelfTestDone   bool         `json:"self_test_done"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	StartTime      string       `json:"start_time"`
	Timestamp      string       `json:"timestamp"`
	MQTT           MQTTStatus   `json:"mqtt"`
	Counts         CountsJSON   `json:"transition_counts"`
	Network        *NetworkJSON `json:"network,omitempty"`
	Config         ConfigJSON   `json:"config"`
}

// MQTTStatus describes the broker link.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of alarm transition counts.
type CountsJSON struct {
	Activations int `json:"activations"`
	Clears      int `json:"clears"`
}

// NetworkJSON mirrors NetworkInfo with wire-format field names.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON mirrors Config with wire-format field names.
type ConfigJSON struct {
	SampleMs   int64   `json:"sample_ms"`
	ButtonMs   int64   `json:"button_ms"`
	DebounceMs int64   `json:"debounce_ms"`
	Threshold  float64 `json:"threshold_volts"`
	Broker     string  `json:"broker"`
	HTTPAddr   string  `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Alarm:          string(snap.Alarm),
		SamplesSent:    snap.SamplesSent,
		SamplesDropped: snap.SamplesDropped,
		Presses:        snap.Presses,
		SelfTestDone:   snap.SelfTestDone,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Activations: snap.Transitions.Activations,
			Clears:      snap.Transitions.Clears,
		},
		Config: ConfigJSON{
			SampleMs:   snap.Config.SampleMs,
			ButtonMs:   snap.Config.ButtonMs,
			DebounceMs: snap.Config.DebounceMs,
			Threshold:  snap.Config.Threshold,
			Broker:     snap.Config.Broker,
			HTTPAddr:   snap.Config.HTTPAddr,
		},
	}

	// Voltages stay null until the sampler has produced a reading.
	if snap.HaveSample {
		x, y, mic := snap.LastSample.X, snap.LastSample.Y, snap.LastSample.Mic
		inner.XVolts = &x
		inner.YVolts = &y
		inner.MicVolts = &mic
	}

	if n := snap.Network; n != nil {
		inner.Network = &NetworkJSON{
			Type:       n.Type,
			IP:         n.IP,
			Status:     n.Status,
			Gateway:    n.Gateway,
			WifiStatus: n.WifiStatus,
			SSID:       n.SSID,
		}
	}

	return inner
}

// FormatJSON renders the indented status document served at /index.json.
// Event and Reason stay empty there.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent renders the compact status document attached to MQTT
// lifecycle events.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
