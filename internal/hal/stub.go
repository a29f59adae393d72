//go:build !linux

package hal

import "errors"

// RealConfig selects the kernel devices backing a RealBoard.
// Unused on non-Linux platforms.
type RealConfig struct {
	ChipName  string
	IIODevice string
	PWMChip   string
	PWMIndex  int
}

// DefaultRealConfig returns zero-value config on non-Linux platforms.
func DefaultRealConfig() RealConfig {
	return RealConfig{}
}

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(cfg RealConfig) (*RealBoard, error) {
	return nil, errors.New("hal: not supported on this platform (requires Linux)")
}

// ReadAxis is not implemented on non-Linux platforms.
func (b *RealBoard) ReadAxis(ch Channel) (uint16, error) {
	return 0, errors.New("hal: not supported")
}

// SetDuty is not implemented on non-Linux platforms.
func (b *RealBoard) SetDuty(level uint16) error {
	return errors.New("hal: not supported")
}

// ReadPin is not implemented on non-Linux platforms.
func (b *RealBoard) ReadPin(pin int) (bool, error) {
	return false, errors.New("hal: not supported")
}

// WritePin is not implemented on non-Linux platforms.
func (b *RealBoard) WritePin(pin int, high bool) error {
	return errors.New("hal: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *RealBoard) Close() error {
	return nil
}
