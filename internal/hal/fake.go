package hal

import (
	"errors"
	"sync"
)

// PinWrite records a single digital write for test assertions.
type PinWrite struct {
	Pin  int
	High bool
}

// FakeBoard is a test double that returns scripted readings and records
// every actuation. Safe for concurrent use — task tests drive it from
// several goroutines.
type FakeBoard struct {
	mu sync.Mutex

	// axisSamples contains scripted raw readings per channel. Each call to
	// ReadAxis consumes the next sample; when exhausted, the last sample
	// repeats.
	axisSamples map[Channel][]uint16
	axisIndex   map[Channel]int

	// pinLevels holds the raw level returned by ReadPin. Unset pins read
	// high (buttons are active-low, so high means released).
	pinLevels map[int]bool

	writes []PinWrite
	duties []uint16

	// ReadError, if set, is returned by ReadAxis and ReadPin.
	ReadError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeBoard creates a FakeBoard with no scripted samples.
func NewFakeBoard() *FakeBoard {
	return &FakeBoard{
		axisSamples: make(map[Channel][]uint16),
		axisIndex:   make(map[Channel]int),
		pinLevels:   make(map[int]bool),
	}
}

// ScriptAxis sets the scripted raw readings for a channel.
func (f *FakeBoard) ScriptAxis(ch Channel, raws ...uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.axisSamples[ch] = raws
	f.axisIndex[ch] = 0
}

// SetPin sets the raw level ReadPin reports for a pin.
func (f *FakeBoard) SetPin(pin int, high bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pinLevels[pin] = high
}

// ReadAxis returns the next scripted sample for the channel.
func (f *FakeBoard) ReadAxis(ch Channel) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	samples := f.axisSamples[ch]
	if len(samples) == 0 {
		return 0, errors.New("no samples configured")
	}
	i := f.axisIndex[ch]
	if i < len(samples)-1 {
		f.axisIndex[ch] = i + 1
	}
	return samples[i], nil
}

// SetDuty records the buzzer duty level.
func (f *FakeBoard) SetDuty(level uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.duties = append(f.duties, level)
	return nil
}

// ReadPin returns the configured level for the pin. Unknown pins read high.
func (f *FakeBoard) ReadPin(pin int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return false, f.ReadError
	}
	level, ok := f.pinLevels[pin]
	if !ok {
		return true, nil
	}
	return level, nil
}

// WritePin records the digital write.
func (f *FakeBoard) WritePin(pin int, high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, PinWrite{Pin: pin, High: high})
	return nil
}

// Close marks the board as closed.
func (f *FakeBoard) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Duties returns a copy of all recorded duty levels in order.
func (f *FakeBoard) Duties() []uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint16, len(f.duties))
	copy(out, f.duties)
	return out
}

// Writes returns a copy of all recorded pin writes in order.
func (f *FakeBoard) Writes() []PinWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PinWrite, len(f.writes))
	copy(out, f.writes)
	return out
}

// WritesFor returns the recorded levels written to one pin, in order.
func (f *FakeBoard) WritesFor(pin int) []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []bool
	for _, w := range f.writes {
		if w.Pin == pin {
			out = append(out, w.High)
		}
	}
	return out
}

// Reset clears recorded actuations and rewinds scripted samples.
func (f *FakeBoard) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
	f.duties = nil
	for ch := range f.axisIndex {
		f.axisIndex[ch] = 0
	}
	f.Closed = false
	f.ReadError = nil
}
