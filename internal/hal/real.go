//go:build linux

package hal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// RealConfig selects the kernel devices backing a RealBoard.
type RealConfig struct {
	ChipName  string // GPIO chip, e.g. "gpiochip0"
	IIODevice string // IIO device directory name, e.g. "iio:device0"
	PWMChip   string // pwmchip directory name, e.g. "pwmchip0"
	PWMIndex  int    // PWM channel index on the chip
}

// DefaultRealConfig returns the device names for the stock board wiring.
func DefaultRealConfig() RealConfig {
	return RealConfig{
		ChipName:  "gpiochip0",
		IIODevice: "iio:device0",
		PWMChip:   "pwmchip0",
		PWMIndex:  0,
	}
}

// RealBoard talks to actual hardware through the Linux GPIO character
// device, sysfs IIO, and sysfs PWM.
type RealBoard struct {
	chip    *gpiocdev.Chip
	inputs  map[int]*gpiocdev.Line
	outputs map[int]*gpiocdev.Line
	iioDir  string
	pwmDir  string
}

// buzzer PWM period for a 1 kHz tone, in nanoseconds.
const pwmPeriodNs = 1000000

// NewRealBoard opens the board peripherals. Buttons and the joystick switch
// are requested as inputs with pull-up (active-low wiring); LEDs are
// requested as outputs driven low.
func NewRealBoard(cfg RealConfig) (*RealBoard, error) {
	chip, err := gpiocdev.NewChip(cfg.ChipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &RealBoard{
		chip:    chip,
		inputs:  make(map[int]*gpiocdev.Line),
		outputs: make(map[int]*gpiocdev.Line),
		iioDir:  filepath.Join("/sys/bus/iio/devices", cfg.IIODevice),
		pwmDir:  filepath.Join("/sys/class/pwm", cfg.PWMChip, fmt.Sprintf("pwm%d", cfg.PWMIndex)),
	}

	for _, pin := range []int{PinButtonA, PinButtonB, PinJoystickSW} {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request input pin %d: %w", pin, err)
		}
		b.inputs[pin] = line
	}

	for _, pin := range []int{PinHeartbeatLED, PinGreenLED, PinBlueLED} {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request output pin %d: %w", pin, err)
		}
		b.outputs[pin] = line
	}

	if err := b.initPWM(cfg); err != nil {
		b.Close()
		return nil, err
	}

	return b, nil
}

// initPWM exports the PWM channel if needed, programs the period, enables
// the output, and leaves the duty at zero.
func (b *RealBoard) initPWM(cfg RealConfig) error {
	if _, err := os.Stat(b.pwmDir); os.IsNotExist(err) {
		export := filepath.Join("/sys/class/pwm", cfg.PWMChip, "export")
		if err := os.WriteFile(export, []byte(strconv.Itoa(cfg.PWMIndex)), 0o644); err != nil {
			return fmt.Errorf("export pwm channel %d: %w", cfg.PWMIndex, err)
		}
	}
	if err := b.writePWMAttr("period", pwmPeriodNs); err != nil {
		return err
	}
	if err := b.writePWMAttr("duty_cycle", 0); err != nil {
		return err
	}
	if err := b.writePWMAttr("enable", 1); err != nil {
		return err
	}
	return nil
}

func (b *RealBoard) writePWMAttr(name string, value int) error {
	path := filepath.Join(b.pwmDir, name)
	if err := os.WriteFile(path, []byte(strconv.Itoa(value)), 0o644); err != nil {
		return fmt.Errorf("write pwm %s: %w", name, err)
	}
	return nil
}

// ReadAxis reads the raw value of an IIO analog channel.
func (b *RealBoard) ReadAxis(ch Channel) (uint16, error) {
	path := filepath.Join(b.iioDir, fmt.Sprintf("in_voltage%d_raw", int(ch)))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read adc channel %d: %w", ch, err)
	}
	raw, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse adc channel %d: %w", ch, err)
	}
	return uint16(raw), nil
}

// SetDuty programs the buzzer duty level (0..PWMWrap).
func (b *RealBoard) SetDuty(level uint16) error {
	if level > PWMWrap {
		level = PWMWrap
	}
	ns := int(uint64(level) * pwmPeriodNs / uint64(PWMWrap))
	return b.writePWMAttr("duty_cycle", ns)
}

// ReadPin returns the raw level of a requested input pin.
func (b *RealBoard) ReadPin(pin int) (bool, error) {
	line, ok := b.inputs[pin]
	if !ok {
		return false, fmt.Errorf("pin %d not requested as input", pin)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v != 0, nil
}

// WritePin drives a requested output pin.
func (b *RealBoard) WritePin(pin int, high bool) error {
	line, ok := b.outputs[pin]
	if !ok {
		return fmt.Errorf("pin %d not requested as output", pin)
	}
	v := 0
	if high {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

// Close silences the buzzer, drives the LEDs low, and releases all lines.
// Reconfiguring inputs back to pull-up keeps the buttons in their idle
// state for whatever starts next.
func (b *RealBoard) Close() error {
	var errs []error

	b.writePWMAttr("duty_cycle", 0)

	for pin, line := range b.outputs {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	for pin, line := range b.inputs {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
