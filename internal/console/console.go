// Package console serializes diagnostic output from concurrent tasks onto
// one shared sink. Output is best-effort: a caller that cannot acquire the
// guard within the bounded wait skips its line rather than blocking.
package console

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// AcquireTimeout bounds how long a caller waits for the guard.
const AcquireTimeout = 100 * time.Millisecond

// Guard owns a line-oriented sink. Any task may call it concurrently;
// whole lines are never interleaved.
type Guard struct {
	sem     chan struct{}
	timeout time.Duration
	sink    io.Writer
}

// New creates a Guard around the given sink with the default acquire timeout.
func New(sink io.Writer) *Guard {
	return NewWithTimeout(sink, AcquireTimeout)
}

// NewWithTimeout creates a Guard with an explicit acquire timeout.
// Tests use a short timeout to exercise the drop path quickly.
func NewWithTimeout(sink io.Writer, timeout time.Duration) *Guard {
	return &Guard{
		sem:     make(chan struct{}, 1),
		timeout: timeout,
		sink:    sink,
	}
}

// TryPrintf formats one line and writes it to the sink. A trailing newline
// is added if the format does not end with one. Returns false if the guard
// could not be acquired within the timeout; nothing is written in that case.
func (g *Guard) TryPrintf(format string, args ...interface{}) bool {
	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case g.sem <- struct{}{}:
	case <-timer.C:
		return false
	}
	defer func() { <-g.sem }()

	line := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	io.WriteString(g.sink, line)
	return true
}
