package tasks

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
	"github.com/dmarques/board-monitor/internal/telemetry"
)

type testEnv struct {
	board   *hal.FakeBoard
	out     *bytes.Buffer
	pub     *telemetry.FakePublisher
	tracker *status.Tracker
	deps    Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	board := hal.NewFakeBoard()
	out := &bytes.Buffer{}
	pub := telemetry.NewFakePublisher()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker := status.NewTracker(start, status.Config{})

	return &testEnv{
		board:   board,
		out:     out,
		pub:     pub,
		tracker: tracker,
		deps: Deps{
			Board:     board,
			Console:   console.New(out),
			Samples:   sampling.NewChannel(5),
			Presses:   event.NewSignal(),
			Status:    tracker,
			Telemetry: pub,
		},
	}
}

func at(i int) time.Time {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(i) * 50 * time.Millisecond)
}

func TestDefaultPlacement(t *testing.T) {
	placement := DefaultPlacement()

	names := make(map[string]bool)
	for _, d := range placement {
		if names[d.Name] {
			t.Errorf("duplicate task name %q", d.Name)
		}
		names[d.Name] = true
	}

	for _, name := range []string{TaskSelfTest, TaskHeartbeat, TaskSampler, TaskButtonPoll, TaskMonitor} {
		if !names[name] {
			t.Errorf("placement missing task %q", name)
		}
	}

	st, _ := Find(placement, TaskSelfTest)
	if !st.RunOnce {
		t.Error("self-test must be run-once")
	}

	// Producer and consumer of the sample channel sit on different cores.
	sampler, _ := Find(placement, TaskSampler)
	monitor, _ := Find(placement, TaskMonitor)
	if sampler.Core == monitor.Core {
		t.Errorf("sampler and monitor share core %d", sampler.Core)
	}
}

func TestFindUnknown(t *testing.T) {
	if _, ok := Find(DefaultPlacement(), "no-such-task"); ok {
		t.Error("expected lookup miss")
	}
}

func TestSpawnRunsBodyAndReports(t *testing.T) {
	env := newTestEnv(t)

	var wg sync.WaitGroup
	ran := make(chan struct{})
	d := Descriptor{Name: "self-test", Priority: 3, Core: -1, RunOnce: true}

	Spawn(context.Background(), &wg, d, env.deps.Console, func(ctx context.Context) {
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("body did not run")
	}
	wg.Wait()

	out := env.out.String()
	if !strings.Contains(out, "task self-test started") {
		t.Errorf("missing start line, got %q", out)
	}
	if !strings.Contains(out, "task self-test terminated") {
		t.Errorf("missing terminated line for run-once task, got %q", out)
	}
}

func TestSpawnForeverTaskStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	d := Descriptor{Name: "heartbeat", Priority: 1, Core: -1}
	Spawn(ctx, &wg, d, env.deps.Console, func(ctx context.Context) {
		<-ctx.Done()
	})

	cancel()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not stop on cancel")
	}

	if strings.Contains(env.out.String(), "terminated") {
		t.Error("forever task should not report termination")
	}
}

func TestHeartbeatToggles(t *testing.T) {
	env := newTestEnv(t)
	h := NewHeartbeat(env.board, time.Second)

	for i := 0; i < 4; i++ {
		h.Step()
	}

	got := env.board.WritesFor(hal.PinHeartbeatLED)
	want := []bool{true, false, true, false}
	if len(got) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSamplerStep(t *testing.T) {
	env := newTestEnv(t)
	env.board.ScriptAxis(hal.ChannelY, 1241)
	env.board.ScriptAxis(hal.ChannelX, 2482)
	env.board.ScriptAxis(hal.ChannelMic, 100)

	s := NewSampler(env.deps, time.Second)
	if err := s.Step(at(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	smp, ok := env.deps.Samples.Receive(0)
	if !ok {
		t.Fatal("expected a queued sample")
	}
	if smp.X != hal.Volts(2482) {
		t.Errorf("expected X=%v, got %v", hal.Volts(2482), smp.X)
	}
	if smp.Y != hal.Volts(1241) {
		t.Errorf("expected Y=%v, got %v", hal.Volts(1241), smp.Y)
	}
	if smp.Mic != hal.Volts(100) {
		t.Errorf("expected Mic=%v, got %v", hal.Volts(100), smp.Mic)
	}
	if !smp.Time.Equal(at(0)) {
		t.Errorf("expected sample time %v, got %v", at(0), smp.Time)
	}

	snap := env.tracker.Snapshot()
	if snap.SamplesSent != 1 || snap.SamplesDropped != 0 {
		t.Errorf("unexpected counts: sent=%d dropped=%d", snap.SamplesSent, snap.SamplesDropped)
	}

	if !strings.Contains(env.out.String(), "Joystick - X:") {
		t.Errorf("missing diagnostic line, got %q", env.out.String())
	}
}

func TestSamplerDropsOnFullChannel(t *testing.T) {
	env := newTestEnv(t)
	env.board.ScriptAxis(hal.ChannelY, 1000)
	env.board.ScriptAxis(hal.ChannelX, 1000)
	env.board.ScriptAxis(hal.ChannelMic, 0)

	s := NewSampler(env.deps, time.Second)

	// Capacity 5: cycles 6 and 7 drop.
	for i := 0; i < 7; i++ {
		if err := s.Step(at(i)); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}

	snap := env.tracker.Snapshot()
	if snap.SamplesSent != 5 {
		t.Errorf("expected 5 sent, got %d", snap.SamplesSent)
	}
	if snap.SamplesDropped != 2 {
		t.Errorf("expected 2 dropped, got %d", snap.SamplesDropped)
	}
	if env.deps.Samples.Dropped() != 2 {
		t.Errorf("channel drop count: expected 2, got %d", env.deps.Samples.Dropped())
	}
}

func TestSamplerReadError(t *testing.T) {
	env := newTestEnv(t)
	s := NewSampler(env.deps, time.Second)

	// No scripted samples: ReadAxis fails, cycle is skipped.
	if err := s.Step(at(0)); err == nil {
		t.Error("expected error")
	}
	if env.deps.Samples.Len() != 0 {
		t.Error("failed cycle must not enqueue a sample")
	}
}

func TestButtonPollerDebounce(t *testing.T) {
	env := newTestEnv(t)
	b := NewButtonPoller(env.deps, time.Second, 200*time.Millisecond)

	// Released: pin high (active-low).
	if b.Step(at(0)) {
		t.Error("released button should not fire")
	}

	env.board.SetPin(hal.PinButtonA, false) // pressed
	if !b.Step(at(1)) {
		t.Error("press should fire")
	}
	if !env.deps.Presses.TryConsume() {
		t.Error("press should raise the signal")
	}

	// Bouncing inside the quiet window (steps are 50ms apart).
	for i := 2; i <= 4; i++ {
		if b.Step(at(i)) {
			t.Errorf("step %d: press inside quiet window should not fire", i)
		}
	}

	// 250ms after the press the window has passed.
	if !b.Step(at(6)) {
		t.Error("press after quiet window should fire")
	}

	snap := env.tracker.Snapshot()
	if snap.Presses != 2 {
		t.Errorf("expected 2 recorded presses, got %d", snap.Presses)
	}
}

func TestMonitorAckOnPress(t *testing.T) {
	env := newTestEnv(t)
	m := NewMonitor(env.deps, MonitorConfig{})

	env.deps.Presses.Raise()
	m.Step(at(0))

	green := env.board.WritesFor(hal.PinGreenLED)
	if len(green) != 2 || !green[0] || green[1] {
		t.Errorf("expected ack pulse [on off], got %v", green)
	}

	events := env.pub.Events()
	if len(events) != 1 || events[0].Type != telemetry.EventPress {
		t.Errorf("expected one press event, got %+v", events)
	}

	// Signal consumed: next cycle does not re-ack.
	m.Step(at(1))
	if len(env.board.WritesFor(hal.PinGreenLED)) != 2 {
		t.Error("press should be acknowledged exactly once")
	}
}

func TestMonitorDrivesBuzzerOnTransitions(t *testing.T) {
	env := newTestEnv(t)
	m := NewMonitor(env.deps, MonitorConfig{Threshold: 3.0})

	for i, x := range []float64{2.5, 3.5, 3.4, 2.8} {
		env.deps.Samples.TrySend(sampling.Sample{X: x, Time: at(i)})
		m.Step(at(i))
	}

	duties := env.board.Duties()
	if len(duties) != 2 {
		t.Fatalf("expected exactly 2 duty writes, got %d (%v)", len(duties), duties)
	}
	if duties[0] != hal.PWMWrap/2 {
		t.Errorf("expected first duty %d, got %d", hal.PWMWrap/2, duties[0])
	}
	if duties[1] != 0 {
		t.Errorf("expected second duty 0, got %d", duties[1])
	}

	events := env.pub.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 alarm events, got %d", len(events))
	}
	if events[0].Type != telemetry.EventAlarmOn || events[1].Type != telemetry.EventAlarmOff {
		t.Errorf("unexpected event sequence: %+v", events)
	}

	snap := env.tracker.Snapshot()
	if snap.Transitions.Activations != 1 || snap.Transitions.Clears != 1 {
		t.Errorf("unexpected transition counts: %+v", snap.Transitions)
	}
}

func TestMonitorEmptyCycle(t *testing.T) {
	env := newTestEnv(t)
	m := NewMonitor(env.deps, MonitorConfig{})

	m.Step(at(0))

	if len(env.board.Duties()) != 0 {
		t.Error("empty cycle must not touch the buzzer")
	}
	if len(env.board.Writes()) != 0 {
		t.Error("empty cycle must not touch the LEDs")
	}
}

func TestMonitorSystemHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	m := NewMonitor(env.deps, MonitorConfig{HeartbeatInterval: time.Minute})

	m.Step(at(0)) // arms the interval
	m.Step(at(1)) // too soon
	if len(env.pub.SystemEvents()) != 0 {
		t.Fatal("heartbeat published too early")
	}

	m.Step(at(0).Add(61 * time.Second))
	sys := env.pub.SystemEvents()
	if len(sys) != 1 || sys[0].Event != "HEARTBEAT" {
		t.Fatalf("expected one HEARTBEAT, got %+v", sys)
	}
	if sys[0].RawPayload == nil {
		t.Error("heartbeat should carry a status snapshot payload")
	}
}

func TestMonitorWithoutTelemetry(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Telemetry = nil
	m := NewMonitor(env.deps, MonitorConfig{Threshold: 3.0, HeartbeatInterval: time.Minute})

	env.deps.Presses.Raise()
	env.deps.Samples.TrySend(sampling.Sample{X: 3.5, Time: at(0)})
	m.Step(at(0))
	m.Step(at(0).Add(2 * time.Minute))

	// No panic; the buzzer still tracked the transition.
	duties := env.board.Duties()
	if len(duties) != 1 || duties[0] != hal.PWMWrap/2 {
		t.Errorf("expected activation duty write, got %v", duties)
	}
}
