package ringglow

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ringglow/button"
)

const gpioConfig = `
backend = "gpio"
rate = 30
settings = "/var/lib/ringglow/settings.img"
settings_address = 16

[gpio]
pins = [12, 13, 18, 19]
frequency = 1000
active_low = true
hold = "5s"

[gpio.buttons]
select = 5
up = 6
down = 26

[gpio.indicators]
pattern = 17
speed = 27
brightness = 22
`

func TestParseConfigGPIO(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(gpioConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, GPIOBackend, cfg.Backend)
	assert.Equal(t, 30, cfg.Rate)
	assert.Equal(t, "/var/lib/ringglow/settings.img", cfg.Settings)
	assert.Equal(t, int64(16), cfg.SettingsAddress)
	assert.Nil(t, cfg.Serial)

	require.NotNil(t, cfg.GPIO)
	assert.Equal(t, []int{12, 13, 18, 19}, cfg.GPIO.Pins)
	assert.Equal(t, 1000, cfg.GPIO.Frequency)
	assert.True(t, cfg.GPIO.ActiveLow)
	assert.Equal(t, 5*time.Second, time.Duration(cfg.GPIO.Hold))

	require.NotNil(t, cfg.GPIO.Buttons)
	assert.Equal(t, map[button.ID]int{
		button.Select: 5,
		button.Up:     6,
		button.Down:   26,
	}, cfg.GPIO.Buttons.Map())

	require.NotNil(t, cfg.GPIO.Indicators)
	assert.Equal(t, []int{17, 27, 22}, cfg.GPIO.Indicators.List())
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`
[serial]
device = "/dev/ttyACM0"
baud = 115200
channels = 6
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SerialBackend, cfg.Backend)
	assert.Equal(t, 60, cfg.Rate)
	assert.Equal(t, "ringglow.img", cfg.Settings)
	assert.Equal(t, &SerialConfig{
		Device:   "/dev/ttyACM0",
		Baud:     115200,
		Channels: 6,
	}, cfg.Serial)
}

func TestParseConfigInvalidDuration(t *testing.T) {
	_, err := ParseConfig(strings.NewReader(`
[gpio]
hold = "forever"
`))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	serialConfig := func() Config {
		cfg := DefaultConfig()
		cfg.Serial = &SerialConfig{Device: "/dev/ttyUSB0", Baud: 115200, Channels: 6}
		return cfg
	}
	gpioConfig := func() Config {
		cfg := DefaultConfig()
		cfg.Backend = GPIOBackend
		cfg.GPIO = &GPIOConfig{
			Pins:      []int{12, 13},
			Frequency: 1000,
			Buttons:   &ButtonPins{Select: 5, Up: 6, Down: 26},
		}
		return cfg
	}

	tests := []struct {
		name   string
		config func() Config
		valid  bool
	}{
		{"serial", serialConfig, true},
		{"gpio", gpioConfig, true},
		{"zero rate", func() Config {
			cfg := serialConfig()
			cfg.Rate = 0
			return cfg
		}, false},
		{"no settings", func() Config {
			cfg := serialConfig()
			cfg.Settings = ""
			return cfg
		}, false},
		{"negative address", func() Config {
			cfg := serialConfig()
			cfg.SettingsAddress = -1
			return cfg
		}, false},
		{"unknown backend", func() Config {
			cfg := serialConfig()
			cfg.Backend = "spi"
			return cfg
		}, false},
		{"serial not configured", func() Config {
			cfg := serialConfig()
			cfg.Serial = nil
			return cfg
		}, false},
		{"no device", func() Config {
			cfg := serialConfig()
			cfg.Serial.Device = ""
			return cfg
		}, false},
		{"no channels", func() Config {
			cfg := serialConfig()
			cfg.Serial.Channels = 0
			return cfg
		}, false},
		{"gpio not configured", func() Config {
			cfg := gpioConfig()
			cfg.GPIO = nil
			return cfg
		}, false},
		{"no pins", func() Config {
			cfg := gpioConfig()
			cfg.GPIO.Pins = nil
			return cfg
		}, false},
		{"no frequency", func() Config {
			cfg := gpioConfig()
			cfg.GPIO.Frequency = 0
			return cfg
		}, false},
		{"duplicate pin", func() Config {
			cfg := gpioConfig()
			cfg.GPIO.Pins = []int{12, 12}
			return cfg
		}, false},
		{"button on output pin", func() Config {
			cfg := gpioConfig()
			cfg.GPIO.Buttons.Up = 13
			return cfg
		}, false},
		{"indicators", func() Config {
			cfg := gpioConfig()
			cfg.GPIO.Indicators = &IndicatorPins{Pattern: 17, Speed: 27, Brightness: 22}
			return cfg
		}, true},
		{"indicator on button pin", func() Config {
			cfg := gpioConfig()
			cfg.GPIO.Indicators = &IndicatorPins{Pattern: 17, Speed: 5, Brightness: 22}
			return cfg
		}, false},
		{"indicator on output pin", func() Config {
			cfg := gpioConfig()
			cfg.GPIO.Indicators = &IndicatorPins{Pattern: 12, Speed: 27, Brightness: 22}
			return cfg
		}, false},
		{"no buttons", func() Config {
			cfg := gpioConfig()
			cfg.GPIO.Buttons = nil
			return cfg
		}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := test.config()
			err := cfg.Validate()
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTOMLDurationText(t *testing.T) {
	var d TOMLDuration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, time.Duration(d))

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))
}
