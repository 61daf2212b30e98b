// Package gpio drives ring channels and reads buttons on Raspberry Pi GPIO
// pins. Channels are BCM pin numbers of PWM-capable pins.
package gpio

import (
	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
	"libdb.so/ringglow/button"
	"libdb.so/ringglow/internal/control"
	"libdb.so/ringglow/internal/ring"
)

// cycleLen is the PWM cycle length. A duty cycle of 255 keeps the pin high.
const cycleLen = 255

// setDuty keeps the pin high for the first duty ticks of every cycle.
func setDuty(pin rpio.Pin, duty uint32) {
	pin.DutyCycleWithPwmMode(duty, cycleLen, rpio.MarkSpace)
}

// Driver is a ring.Driver writing duty cycles to hardware PWM pins.
type Driver struct {
	pins       []rpio.Pin
	indicators []rpio.Pin
}

var _ ring.Driver = (*Driver)(nil)

// Open maps the GPIO memory and configures the given pins for PWM at the
// given frequency in Hz.
func Open(pins []int, frequency int) (*Driver, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "failed to open GPIO")
	}

	d := &Driver{pins: make([]rpio.Pin, len(pins))}
	for i, n := range pins {
		pin := rpio.Pin(n)
		pin.Mode(rpio.Pwm)
		pin.Freq(frequency * cycleLen)
		setDuty(pin, 0)
		d.pins[i] = pin
	}

	return d, nil
}

// Channels returns the channel handles of the pins, in ring order.
func (d *Driver) Channels() []ring.Channel {
	channels := make([]ring.Channel, len(d.pins))
	for i, pin := range d.pins {
		channels[i] = ring.Channel(pin)
	}
	return channels
}

// Write implements ring.Driver.
func (d *Driver) Write(ch ring.Channel, duty uint8) {
	setDuty(rpio.Pin(ch), uint32(duty))
}

// Close turns every pin off and unmaps the GPIO memory.
func (d *Driver) Close() error {
	for _, pin := range d.pins {
		setDuty(pin, 0)
	}
	for _, pin := range d.indicators {
		pin.Low()
	}
	return rpio.Close()
}

type inputPin rpio.Pin

func (p inputPin) Get() bool {
	return rpio.Pin(p).Read() == rpio.High
}

// Button configures the given pin as a button input. Active-low buttons get
// the internal pull-up, others the pull-down.
func (d *Driver) Button(id button.ID, n int, cfg button.Config) *button.Button {
	pin := rpio.Pin(n)
	pin.Input()
	if cfg.ActiveLow {
		pin.PullUp()
	} else {
		pin.PullDown()
	}
	return button.New(id, inputPin(pin), cfg)
}

// Indicators drives one output pin per adjustment mode.
type Indicators struct {
	pins []rpio.Pin
}

var _ control.Indicator = (*Indicators)(nil)

// Indicators configures the given pins as indicator outputs, in
// control.Mode order. They start off.
func (d *Driver) Indicators(pins []int) *Indicators {
	ind := &Indicators{pins: make([]rpio.Pin, len(pins))}
	for i, n := range pins {
		pin := rpio.Pin(n)
		pin.Output()
		pin.Low()
		ind.pins[i] = pin
	}
	d.indicators = append(d.indicators, ind.pins...)
	return ind
}

// ShowMode implements control.Indicator.
func (ind *Indicators) ShowMode(mode control.Mode, lit bool) {
	lights := control.Lights(mode, lit)
	for i, pin := range ind.pins {
		if lights&(1<<i) != 0 {
			pin.High()
		} else {
			pin.Low()
		}
	}
}
