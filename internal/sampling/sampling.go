// Package sampling defines the sensor sample tuple and the bounded channel
// that hands samples from the sampling task to the monitor task.
// This package has no hardware dependencies; time is always carried in the
// sample itself.
package sampling

import (
	"sync/atomic"
	"time"
)

// DefaultCapacity is the sample channel depth used at startup.
const DefaultCapacity = 5

// Sample is one reading of the analog channels, in volts.
type Sample struct {
	X    float64
	Y    float64
	Mic  float64
	Time time.Time
}

// Channel is a fixed-capacity FIFO between one producer and one consumer.
// The producer never blocks: when the channel is full the new sample is
// dropped, favoring sampling-rate stability over completeness.
type Channel struct {
	ch      chan Sample
	dropped atomic.Uint64
}

// NewChannel creates a Channel with the given capacity.
func NewChannel(capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Channel{ch: make(chan Sample, capacity)}
}

// TrySend enqueues the sample without blocking. Returns false if the
// channel is full; the sample is dropped and the drop count incremented.
func (c *Channel) TrySend(s Sample) bool {
	select {
	case c.ch <- s:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// Receive dequeues the oldest sample, waiting up to timeout. Returns false
// if no sample arrived within the bound. A timeout of zero polls without
// waiting.
func (c *Channel) Receive(timeout time.Duration) (Sample, bool) {
	if timeout <= 0 {
		select {
		case s := <-c.ch:
			return s, true
		default:
			return Sample{}, false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s := <-c.ch:
		return s, true
	case <-timer.C:
		return Sample{}, false
	}
}

// Len returns the number of samples currently queued.
func (c *Channel) Len() int {
	return len(c.ch)
}

// Cap returns the channel capacity.
func (c *Channel) Cap() int {
	return cap(c.ch)
}

// Dropped returns how many samples were dropped on a full channel.
func (c *Channel) Dropped() uint64 {
	return c.dropped.Load()
}
