// Package status provides a thread-safe status tracker for the board-monitor
// daemon. It is read by the HTTP handlers and feeds the MQTT system payloads.
package status

import (
	"sync"
	"time"

	"github.com/dmarques/board-monitor/internal/alarm"
	"github.com/dmarques/board-monitor/internal/sampling"
)

// NetworkInfo contains network state read from pi-helper env vars.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config echoes the effective daemon settings on the status surfaces.
type Config struct {
	SampleMs   int64
	ButtonMs   int64
	DebounceMs int64
	Threshold  float64
	Broker     string
	HTTPAddr   string
}

// Snapshot is one consistent view of the daemon. It is plain data: callers
// hold no lock while formatting or templating it.
type Snapshot struct {
	Alarm          alarm.State
	LastSample     sampling.Sample
	HaveSample     bool
	SamplesSent    uint64
	SamplesDropped uint64
	Presses        int
	Transitions    alarm.Counts
	SelfTestDone   bool
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Network        *NetworkInfo
	Config         Config
}

// Uptime is how long the daemon has been running at snapshot time.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker is the single writer-shared record of daemon state. Tasks update
// it through the setters; readers take whole snapshots.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker starts a tracker in the idle state.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Alarm:     alarm.StateIdle,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// RecordSample notes one sampling cycle. Called by the sampler on every tick.
func (t *Tracker) RecordSample(s sampling.Sample, sent bool) {
	t.mu.Lock()
	t.snap.LastSample = s
	t.snap.HaveSample = true
	if sent {
		t.snap.SamplesSent++
	} else {
		t.snap.SamplesDropped++
	}
	t.mu.Unlock()
}

// RecordPress increments the debounced press count.
func (t *Tracker) RecordPress() {
	t.mu.Lock()
	t.snap.Presses++
	t.mu.Unlock()
}

// SetAlarm records the alarm state and transition counts.
func (t *Tracker) SetAlarm(state alarm.State, counts alarm.Counts) {
	t.mu.Lock()
	t.snap.Alarm = state
	t.snap.Transitions = counts
	t.mu.Unlock()
}

// SetSelfTestDone marks the self-test task as terminated.
func (t *Tracker) SetSelfTestDone() {
	t.mu.Lock()
	t.snap.SelfTestDone = true
	t.mu.Unlock()
}

// SetMQTTConnected records broker connectivity for the status surfaces.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork attaches bench network details to the snapshot.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot copies the current state and stamps it with the call time.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
