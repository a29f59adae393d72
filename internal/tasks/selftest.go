package tasks

import (
	"context"
	"log"
	"time"

	"github.com/dmarques/board-monitor/internal/hal"
)

// SelfTestConfig tunes the self-test step timings. Zero values select the
// defaults; tests use tiny windows so the sequence completes instantly.
type SelfTestConfig struct {
	LEDHold        time.Duration // how long each LED stays lit
	BeepDuration   time.Duration
	ObserveWindow  time.Duration // how long to watch each button input
	PollInterval   time.Duration
	DebounceEcho   time.Duration // quiet time after echoing a press
	AnalogReads    int
	AnalogInterval time.Duration
}

func (c SelfTestConfig) withDefaults() SelfTestConfig {
	if c.LEDHold <= 0 {
		c.LEDHold = 500 * time.Millisecond
	}
	if c.BeepDuration <= 0 {
		c.BeepDuration = 200 * time.Millisecond
	}
	if c.ObserveWindow <= 0 {
		c.ObserveWindow = 3 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 50 * time.Millisecond
	}
	if c.DebounceEcho <= 0 {
		c.DebounceEcho = 200 * time.Millisecond
	}
	if c.AnalogReads <= 0 {
		c.AnalogReads = 5
	}
	if c.AnalogInterval <= 0 {
		c.AnalogInterval = 500 * time.Millisecond
	}
	return c
}

// SelfTest exercises each hardware subsystem once at startup, then
// terminates. It holds no resources after its pass completes.
type SelfTest struct {
	deps Deps
	cfg  SelfTestConfig
	now  func() time.Time
}

// NewSelfTest creates the self-test task.
func NewSelfTest(deps Deps, cfg SelfTestConfig) *SelfTest {
	return &SelfTest{
		deps: deps,
		cfg:  cfg.withDefaults(),
		now:  time.Now,
	}
}

// Run executes the fixed step sequence and returns. Each step is bounded in
// time; context cancellation aborts the remainder of the sequence.
func (t *SelfTest) Run(ctx context.Context) {
	t.deps.Console.TryPrintf("--- Self-test starting ---")

	t.testLEDs(ctx)
	t.testBuzzer(ctx)
	t.testButtons(ctx)
	t.testJoystickSwitch(ctx)
	t.testAnalogChannels(ctx)

	t.deps.Console.TryPrintf("--- Self-test complete ---")
	t.deps.Status.SetSelfTestDone()
}

func (t *SelfTest) testLEDs(ctx context.Context) {
	t.deps.Console.TryPrintf("Testing LEDs...")

	for _, pin := range []int{hal.PinGreenLED, hal.PinBlueLED} {
		if err := t.deps.Board.WritePin(pin, true); err != nil {
			log.Printf("self-test: LED pin %d on: %v", pin, err)
		}
		if !sleepCtx(ctx, t.cfg.LEDHold) {
			t.deps.Board.WritePin(pin, false)
			return
		}
		if err := t.deps.Board.WritePin(pin, false); err != nil {
			log.Printf("self-test: LED pin %d off: %v", pin, err)
		}
	}
	sleepCtx(ctx, t.cfg.LEDHold)
}

func (t *SelfTest) testBuzzer(ctx context.Context) {
	t.deps.Console.TryPrintf("Testing buzzer...")

	if err := t.deps.Board.SetDuty(hal.PWMWrap / 2); err != nil {
		log.Printf("self-test: buzzer on: %v", err)
	}
	sleepCtx(ctx, t.cfg.BeepDuration)
	if err := t.deps.Board.SetDuty(0); err != nil {
		log.Printf("self-test: buzzer off: %v", err)
	}
	sleepCtx(ctx, t.cfg.LEDHold)
}

func (t *SelfTest) testButtons(ctx context.Context) {
	t.deps.Console.TryPrintf("Testing buttons...")
	t.deps.Console.TryPrintf("Press buttons A and B...")

	deadline := t.now().Add(t.cfg.ObserveWindow)
	for t.now().Before(deadline) && ctx.Err() == nil {
		aPressed := t.pinPressed(hal.PinButtonA)
		bPressed := t.pinPressed(hal.PinButtonB)

		if aPressed || bPressed {
			name := "A"
			if !aPressed {
				name = "B"
			}
			t.deps.Console.TryPrintf("Button %s pressed", name)
			if !sleepCtx(ctx, t.cfg.DebounceEcho) {
				return
			}
		}
		if !sleepCtx(ctx, t.cfg.PollInterval) {
			return
		}
	}
}

func (t *SelfTest) testJoystickSwitch(ctx context.Context) {
	t.deps.Console.TryPrintf("Testing joystick switch...")
	t.deps.Console.TryPrintf("Press the joystick switch...")

	deadline := t.now().Add(t.cfg.ObserveWindow)
	for t.now().Before(deadline) && ctx.Err() == nil {
		if t.pinPressed(hal.PinJoystickSW) {
			t.deps.Console.TryPrintf("Joystick switch pressed")
			sleepCtx(ctx, t.cfg.DebounceEcho)
			return
		}
		if !sleepCtx(ctx, t.cfg.PollInterval) {
			return
		}
	}
}

func (t *SelfTest) testAnalogChannels(ctx context.Context) {
	t.deps.Console.TryPrintf("Testing analog channels...")

	for i := 0; i < t.cfg.AnalogReads && ctx.Err() == nil; i++ {
		y := t.readVolts(hal.ChannelY)
		x := t.readVolts(hal.ChannelX)
		mic := t.readVolts(hal.ChannelMic)

		t.deps.Console.TryPrintf("ADC - X: %.2fV, Y: %.2fV, Mic: %.2fV", x, y, mic)

		if !sleepCtx(ctx, t.cfg.AnalogInterval) {
			return
		}
	}
}

// pinPressed reads an active-low input; errors read as not pressed.
func (t *SelfTest) pinPressed(pin int) bool {
	raw, err := t.deps.Board.ReadPin(pin)
	if err != nil {
		log.Printf("self-test: read pin %d: %v", pin, err)
		return false
	}
	return !raw
}

func (t *SelfTest) readVolts(ch hal.Channel) float64 {
	raw, err := t.deps.Board.ReadAxis(ch)
	if err != nil {
		log.Printf("self-test: read channel %d: %v", ch, err)
		return 0
	}
	return hal.Volts(raw)
}
