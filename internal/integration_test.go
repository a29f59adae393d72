// Package internal holds cross-package pipeline tests: fake board in,
// buzzer duty and console lines out, with the real tasks wired together
// the same way the daemon wires them.
package internal

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmarques/board-monitor/internal/console"
	"github.com/dmarques/board-monitor/internal/event"
	"github.com/dmarques/board-monitor/internal/hal"
	"github.com/dmarques/board-monitor/internal/sampling"
	"github.com/dmarques/board-monitor/internal/status"
	"github.com/dmarques/board-monitor/internal/tasks"
	"github.com/dmarques/board-monitor/internal/telemetry"
)

type pipeline struct {
	board   *hal.FakeBoard
	out     *bytes.Buffer
	pub     *telemetry.FakePublisher
	tracker *status.Tracker
	deps    tasks.Deps
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	board := hal.NewFakeBoard()
	out := &bytes.Buffer{}
	pub := telemetry.NewFakePublisher()
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	p := &pipeline{
		board:   board,
		out:     out,
		pub:     pub,
		tracker: status.NewTracker(start, status.Config{}),
	}
	p.deps = tasks.Deps{
		Board:     board,
		Console:   console.New(out),
		Samples:   sampling.NewChannel(sampling.DefaultCapacity),
		Presses:   event.NewSignal(),
		Status:    p.tracker,
		Telemetry: pub,
	}
	return p
}

func rawCounts(volts float64) uint16 {
	return uint16(volts * hal.FullScale / hal.VRef)
}

func tick(i int) time.Time {
	base := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(i) * tasks.SamplePeriod)
}

// An X sweep of 2.5V, 3.5V, 2.8V through the sampler and monitor must
// produce exactly two buzzer writes: 50% duty on crossing up, 0 on
// crossing back down.
func TestPipelineAlarmSweep(t *testing.T) {
	p := newPipeline(t)
	volts := []float64{2.5, 3.5, 2.8}
	xs := make([]uint16, len(volts))
	for i, v := range volts {
		xs[i] = rawCounts(v)
	}
	p.board.ScriptAxis(hal.ChannelX, xs...)
	p.board.ScriptAxis(hal.ChannelY, rawCounts(1.0))
	p.board.ScriptAxis(hal.ChannelMic, rawCounts(0.5))

	sampler := tasks.NewSampler(p.deps, tasks.SamplePeriod)
	monitor := tasks.NewMonitor(p.deps, tasks.MonitorConfig{Threshold: 3.0})

	for i := range volts {
		if err := sampler.Step(tick(i)); err != nil {
			t.Fatalf("sampler step %d: %v", i, err)
		}
		monitor.Step(tick(i))
	}

	duties := p.board.Duties()
	if len(duties) != 2 {
		t.Fatalf("expected 2 duty writes for one excursion, got %d (%v)", len(duties), duties)
	}
	if duties[0] != hal.PWMWrap/2 {
		t.Errorf("activation duty = %d, want %d", duties[0], hal.PWMWrap/2)
	}
	if duties[1] != 0 {
		t.Errorf("clear duty = %d, want 0", duties[1])
	}

	snap := p.tracker.Snapshot()
	if snap.Transitions.Activations != 1 || snap.Transitions.Clears != 1 {
		t.Errorf("transitions = %+v, want 1 activation and 1 clear", snap.Transitions)
	}
	if snap.SamplesSent != 3 {
		t.Errorf("samples sent = %d, want 3", snap.SamplesSent)
	}

	events := p.pub.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 telemetry events, got %d", len(events))
	}
	if events[0].Type != telemetry.EventAlarmOn || events[1].Type != telemetry.EventAlarmOff {
		t.Errorf("event types = %v, %v", events[0].Type, events[1].Type)
	}
}

// Five raw presses inside one debounce window collapse to a single
// consumed event and a single acknowledgement.
func TestPipelineRapidPresses(t *testing.T) {
	p := newPipeline(t)
	p.board.SetPin(hal.PinButtonA, false) // active low: held down

	poller := tasks.NewButtonPoller(p.deps, tasks.ButtonPollPeriod, event.DebounceWindow)

	base := tick(0)
	fired := 0
	for i := 0; i < 5; i++ {
		// 20ms apart, all inside the 200ms quiet window.
		if poller.Step(base.Add(time.Duration(i) * tasks.ButtonPollPeriod)) {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("debouncer fired %d times, want 1", fired)
	}

	monitor := tasks.NewMonitor(p.deps, tasks.MonitorConfig{})
	monitor.Step(base)
	monitor.Step(base.Add(tasks.MonitorPeriod))

	greens := p.board.WritesFor(hal.PinGreenLED)
	if len(greens) != 2 || !greens[0] || greens[1] {
		t.Errorf("green LED writes = %v, want one on/off pulse", greens)
	}
	if got := strings.Count(p.out.String(), "Button press acknowledged"); got != 1 {
		t.Errorf("acknowledged %d times, want 1", got)
	}
	if snap := p.tracker.Snapshot(); snap.Presses != 1 {
		t.Errorf("presses = %d, want 1", snap.Presses)
	}
}

// The self-test runs once to completion and then stays silent while the
// rest of the system keeps going.
func TestPipelineSelfTestRunsOnce(t *testing.T) {
	p := newPipeline(t)
	p.board.ScriptAxis(hal.ChannelX, rawCounts(1.5))
	p.board.ScriptAxis(hal.ChannelY, rawCounts(1.5))
	p.board.ScriptAxis(hal.ChannelMic, rawCounts(0.2))

	cfg := tasks.SelfTestConfig{
		LEDHold:        time.Millisecond,
		BeepDuration:   time.Millisecond,
		ObserveWindow:  5 * time.Millisecond,
		PollInterval:   time.Millisecond,
		DebounceEcho:   time.Millisecond,
		AnalogReads:    2,
		AnalogInterval: time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	d, ok := tasks.Find(tasks.DefaultPlacement(), tasks.TaskSelfTest)
	if !ok {
		t.Fatal("no self-test in placement")
	}
	tasks.Spawn(ctx, &wg, d, p.deps.Console, tasks.NewSelfTest(p.deps, cfg).Run)
	wg.Wait()

	if !p.tracker.Snapshot().SelfTestDone {
		t.Error("self-test not marked done")
	}
	quiescent := p.out.Len()

	// Sampler still works after the self-test goroutine is gone, and the
	// self-test itself writes nothing further.
	before := p.out.String()
	sampler := tasks.NewSampler(p.deps, tasks.SamplePeriod)
	if err := sampler.Step(tick(100)); err != nil {
		t.Fatalf("sampler after self-test: %v", err)
	}
	after := p.out.String()
	if !strings.Contains(after[len(before):], "Joystick") {
		t.Error("sampler produced no output after self-test")
	}
	if !strings.Contains(before, "terminated") {
		t.Errorf("run-once task did not report termination; output ends at %d bytes", quiescent)
	}
}

// Every line written through the shared console comes out whole even when
// several tasks print concurrently.
func TestPipelineConsoleLinesStayWhole(t *testing.T) {
	p := newPipeline(t)
	guard := p.deps.Console

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				guard.TryPrintf("writer %d line %d", g, i)
			}
		}(g)
	}
	wg.Wait()

	for _, line := range strings.Split(strings.TrimRight(p.out.String(), "\n"), "\n") {
		if !strings.HasPrefix(line, "writer ") || !strings.Contains(line, " line ") {
			t.Fatalf("interleaved or partial line: %q", line)
		}
	}
}
