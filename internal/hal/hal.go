// Package hal provides access to the bench board peripherals with hardware
// abstraction. The real implementation uses the Linux GPIO character device
// for digital pins, sysfs IIO for the analog channels, and sysfs pwmchip for
// the buzzer. The fake implementation allows testing without hardware.
package hal

// Channel identifies an analog input channel on the board ADC.
type Channel int

const (
	ChannelY   Channel = 0 // joystick Y axis
	ChannelX   Channel = 1 // joystick X axis
	ChannelMic Channel = 2 // microphone
)

// Pin definitions (board numbering).
const (
	PinHeartbeatLED = 13
	PinGreenLED     = 11
	PinBlueLED      = 12
	PinBuzzer       = 21
	PinButtonA      = 5
	PinButtonB      = 6
	PinJoystickSW   = 22
)

// ADC geometry. Raw readings convert to volts as raw * VRef / FullScale.
const (
	VRef      = 3.3
	FullScale = 4096
)

// PWMWrap is the buzzer counter wrap value (125 MHz / (1 kHz * 2.0 divider)).
// A duty level of PWMWrap/2 is a 50% duty cycle.
const PWMWrap uint16 = 62500

// AnalogReader reads raw samples from the analog channels.
type AnalogReader interface {
	// ReadAxis returns the raw 12-bit reading for the given channel.
	ReadAxis(ch Channel) (uint16, error)
}

// PWMOutput drives the buzzer PWM duty level.
type PWMOutput interface {
	// SetDuty sets the buzzer output level in counter units (0..PWMWrap).
	SetDuty(level uint16) error
}

// DigitalIO reads and writes digital pins.
// Buttons are wired active-low: a raw low level means pressed.
type DigitalIO interface {
	// ReadPin returns the raw level of the given input pin.
	ReadPin(pin int) (bool, error)

	// WritePin drives the given output pin.
	WritePin(pin int, high bool) error
}

// Board bundles the peripheral interfaces the monitor tasks need.
type Board interface {
	AnalogReader
	PWMOutput
	DigitalIO

	// Close releases peripheral resources.
	Close() error
}

// Volts converts a raw ADC reading to a voltage.
func Volts(raw uint16) float64 {
	return float64(raw) * VRef / FullScale
}
