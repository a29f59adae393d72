package tasks

import (
	"context"
	"log"
	"time"

	"github.com/dmarques/board-monitor/internal/hal"
	"github.com/dmarques/board-monitor/internal/sampling"
)

// Sampler reads the analog channels at a fixed period and hands samples to
// the monitor through the bounded channel. It never blocks on a full
// channel: a dropped sample only shows up in the status counters.
type Sampler struct {
	deps    Deps
	period  time.Duration
	readMic bool
}

// NewSampler creates the sampling task.
func NewSampler(deps Deps, period time.Duration) *Sampler {
	if period <= 0 {
		period = SamplePeriod
	}
	return &Sampler{
		deps:    deps,
		period:  period,
		readMic: true,
	}
}

// Step performs one sampling cycle: read all channels once, try to enqueue
// the sample, emit a diagnostic line.
func (s *Sampler) Step(now time.Time) error {
	yRaw, err := s.deps.Board.ReadAxis(hal.ChannelY)
	if err != nil {
		log.Printf("sampler: read Y: %v", err)
		return err
	}
	xRaw, err := s.deps.Board.ReadAxis(hal.ChannelX)
	if err != nil {
		log.Printf("sampler: read X: %v", err)
		return err
	}

	smp := sampling.Sample{
		X:    hal.Volts(xRaw),
		Y:    hal.Volts(yRaw),
		Time: now,
	}

	if s.readMic {
		micRaw, err := s.deps.Board.ReadAxis(hal.ChannelMic)
		if err != nil {
			log.Printf("sampler: read mic: %v", err)
			return err
		}
		smp.Mic = hal.Volts(micRaw)
	}

	sent := s.deps.Samples.TrySend(smp)
	s.deps.Status.RecordSample(smp, sent)

	s.deps.Console.TryPrintf("Joystick - X: %.2fV, Y: %.2fV", smp.X, smp.Y)
	return nil
}

// Run samples at the fixed period until the context ends. Read errors are
// logged and the cycle skipped; sampling never stops.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step(time.Now())
		}
	}
}
