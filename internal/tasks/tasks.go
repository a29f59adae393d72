// Package tasks defines the monitor's task set: each task's body, its
// placement on the processor cores, and the shared handles passed to every
// task at creation. Placement is a static table applied once at startup.
package tasks

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/dmarques/board-monitor/internal/console"
	"github.com/dmarques/board-monitor/internal/event"
	"github.com/dmarques/board-monitor/internal/hal"
	"github.com/dmarques/board-monitor/internal/sampling"
	"github.com/dmarques/board-monitor/internal/status"
	"github.com/dmarques/board-monitor/internal/telemetry"
)

// Fixed task periods.
const (
	HeartbeatHalfPeriod    = 500 * time.Millisecond
	SamplePeriod           = 50 * time.Millisecond
	ButtonPollPeriod       = 20 * time.Millisecond
	MonitorPeriod          = 20 * time.Millisecond
	MonitorReceiveTimeout  = 20 * time.Millisecond
	AckPulse               = 100 * time.Millisecond
	SystemHeartbeatDefault = 15 * time.Minute
)

// Task names, also used as placement table keys.
const (
	TaskSelfTest   = "self-test"
	TaskHeartbeat  = "heartbeat"
	TaskSampler    = "sampler"
	TaskButtonPoll = "button-poll"
	TaskMonitor    = "monitor"
)

// Descriptor declares one task: its name, scheduling hints, and lifecycle.
// Priority is advisory on the host scheduler; Core is enforced via thread
// affinity. A Core of -1 leaves the task unpinned.
type Descriptor struct {
	Name     string
	Priority int
	Core     int
	RunOnce  bool
}

// DefaultPlacement returns the static task-to-core assignment. Producer and
// consumer of the sample channel sit on different cores; the self-test
// shares core 0 and terminates after one pass.
func DefaultPlacement() []Descriptor {
	return []Descriptor{
		{Name: TaskSelfTest, Priority: 3, Core: 0, RunOnce: true},
		{Name: TaskHeartbeat, Priority: 1, Core: 0},
		{Name: TaskSampler, Priority: 2, Core: 0},
		{Name: TaskButtonPoll, Priority: 2, Core: 1},
		{Name: TaskMonitor, Priority: 2, Core: 1},
	}
}

// Find returns the descriptor with the given name from a placement table.
func Find(placement []Descriptor, name string) (Descriptor, bool) {
	for _, d := range placement {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Deps bundles the shared handles handed to each task at creation. All of
// them are initialized before any task starts and never replaced afterward.
type Deps struct {
	Board     hal.Board
	Console   *console.Guard
	Samples   *sampling.Channel
	Presses   *event.Signal
	Status    *status.Tracker
	Telemetry telemetry.Publisher // nil disables telemetry
}

// Spawn launches a task body on its own goroutine with the descriptor's
// placement applied. Pinned tasks lock their OS thread first so the
// affinity sticks to the task for its whole life.
func Spawn(ctx context.Context, wg *sync.WaitGroup, d Descriptor, con *console.Guard, body func(context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if d.Core >= 0 {
			runtime.LockOSThread()
			if err := pinToCore(d.Core); err != nil {
				con.TryPrintf("task %s: pin to core %d failed: %v", d.Name, d.Core, err)
			}
		}
		con.TryPrintf("task %s started (core %d, priority %d)", d.Name, d.Core, d.Priority)
		body(ctx)
		if d.RunOnce {
			con.TryPrintf("task %s terminated", d.Name)
		}
	}()
}

// sleepCtx sleeps for d or until the context is canceled.
// Returns false if the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
