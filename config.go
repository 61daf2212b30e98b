package ringglow

import (
	"encoding"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"libdb.so/ringglow/button"
)

// Config is the configuration for the ringglow daemon.
type Config struct {
	// Backend is the output backend to drive the ring with.
	Backend Backend `toml:"backend"`
	// Rate is the refresh rate of the ring in frames per second.
	Rate int `toml:"rate"`
	// Settings is the path to the settings image file. It is created if it
	// does not exist.
	Settings string `toml:"settings"`
	// SettingsAddress is the offset of the settings record in the image.
	SettingsAddress int64 `toml:"settings_address"`

	// Serial is the configuration for SerialBackend.
	Serial *SerialConfig `toml:"serial,omitempty"`
	// GPIO is the configuration for GPIOBackend.
	GPIO *GPIOConfig `toml:"gpio,omitempty"`
}

// Backend is the kind of output backend.
type Backend string

const (
	// SerialBackend drives a ring controller over a serial port.
	SerialBackend Backend = "serial"
	// GPIOBackend drives Raspberry Pi PWM pins directly.
	GPIOBackend Backend = "gpio"
)

// SerialConfig is the configuration for the serial backend.
type SerialConfig struct {
	// Device is the path to the device file of the controller.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// Channels is the number of channels on the controller.
	Channels int `toml:"channels"`
}

// GPIOConfig is the configuration for the GPIO backend.
type GPIOConfig struct {
	// Pins are the BCM numbers of the PWM pins, in ring order.
	Pins []int `toml:"pins"`
	// Frequency is the PWM frequency in Hz.
	Frequency int `toml:"frequency"`
	// Buttons are the BCM numbers of the button pins. If not set, the ring
	// cannot be controlled.
	Buttons *ButtonPins `toml:"buttons,omitempty"`
	// ActiveLow is true if the buttons pull their pins low when pressed.
	ActiveLow bool `toml:"active_low"`
	// Hold is how long Select must be held to toggle power.
	Hold TOMLDuration `toml:"hold"`
	// Indicators are the BCM numbers of the pins lighting the setting the
	// buttons adjust. If not set, the setting is not shown.
	Indicators *IndicatorPins `toml:"indicators,omitempty"`
}

// ButtonPins are the BCM numbers of the button pins.
type ButtonPins struct {
	Select int `toml:"select"`
	Up     int `toml:"up"`
	Down   int `toml:"down"`
}

// Map returns the pins by button.
func (p ButtonPins) Map() map[button.ID]int {
	return map[button.ID]int{
		button.Select: p.Select,
		button.Up:     p.Up,
		button.Down:   p.Down,
	}
}

// IndicatorPins are the BCM numbers of the indicator pins.
type IndicatorPins struct {
	Pattern    int `toml:"pattern"`
	Speed      int `toml:"speed"`
	Brightness int `toml:"brightness"`
}

// List returns the pins in control.Mode order.
func (p IndicatorPins) List() []int {
	return []int{p.Pattern, p.Speed, p.Brightness}
}

// DefaultConfig returns the configuration used for fields missing from the
// configuration file.
func DefaultConfig() Config {
	return Config{
		Backend:  SerialBackend,
		Rate:     60,
		Settings: "ringglow.img",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Rate < 1 {
		return fmt.Errorf("invalid rate %d", c.Rate)
	}

	if c.Settings == "" {
		return errors.New("no settings image configured")
	}

	if c.SettingsAddress < 0 {
		return fmt.Errorf("invalid settings address %d", c.SettingsAddress)
	}

	switch c.Backend {
	case SerialBackend:
		if c.Serial == nil {
			return errors.New("serial backend not configured")
		}
		if c.Serial.Device == "" {
			return errors.New("no serial device configured")
		}
		if c.Serial.Channels < 1 || c.Serial.Channels > 0xFFFF {
			return fmt.Errorf("invalid number of channels %d", c.Serial.Channels)
		}

	case GPIOBackend:
		if c.GPIO == nil {
			return errors.New("gpio backend not configured")
		}
		if len(c.GPIO.Pins) == 0 {
			return errors.New("no GPIO pins configured")
		}
		if c.GPIO.Frequency < 1 {
			return fmt.Errorf("invalid PWM frequency %d", c.GPIO.Frequency)
		}

		seen := make(map[int]bool)
		for _, pin := range c.GPIO.Pins {
			if seen[pin] {
				return fmt.Errorf("GPIO pin %d used twice", pin)
			}
			seen[pin] = true
		}
		if c.GPIO.Buttons != nil {
			for id, pin := range c.GPIO.Buttons.Map() {
				if seen[pin] {
					return fmt.Errorf("GPIO pin %d of button %s already in use", pin, id)
				}
				seen[pin] = true
			}
		}
		if c.GPIO.Indicators != nil {
			for _, pin := range c.GPIO.Indicators.List() {
				if seen[pin] {
					return fmt.Errorf("GPIO pin %d of an indicator already in use", pin)
				}
				seen[pin] = true
			}
		}

	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	return nil
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a configuration from a reader. Fields missing from the
// configuration keep their DefaultConfig values.
func ParseConfig(r io.Reader) (*Config, error) {
	config := DefaultConfig()
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
