// Package control maps button events onto the ring control surface.
package control

import (
	"fmt"
	"log/slog"

	"libdb.so/ringglow/button"
)

// Ring is the control surface of a ring engine.
type Ring interface {
	UpdateBrightness(delta int) bool
	UpdatePattern(delta int) bool
	UpdateSpeed(delta int) bool
	Running() bool
	StartUp()
	Shutdown()
}

// Mode is the setting adjusted by the Up and Down buttons.
type Mode uint8

const (
	PatternMode Mode = iota
	SpeedMode
	BrightnessMode
	modeCount
)

func (m Mode) String() string {
	switch m {
	case PatternMode:
		return "pattern"
	case SpeedMode:
		return "speed"
	case BrightnessMode:
		return "brightness"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Indicator shows which setting the Up and Down buttons adjust. Every mode
// has its own light. lit is false while the ring is shut down.
type Indicator interface {
	ShowMode(mode Mode, lit bool)
}

// IndicatorFunc is a function that implements Indicator.
type IndicatorFunc func(mode Mode, lit bool)

func (f IndicatorFunc) ShowMode(mode Mode, lit bool) { f(mode, lit) }

// Lights returns the indicator lights for the given mode as a bit set, where
// bit i is the light of Mode(i).
func Lights(mode Mode, lit bool) uint8 {
	if !lit || mode >= modeCount {
		return 0
	}
	return 1 << mode
}

// Dispatcher turns button events into ring control calls. Button actions
// happen on release, except holding Select, which toggles power.
type Dispatcher struct {
	ring      Ring
	logger    *slog.Logger
	indicator Indicator
	mode      Mode
	// swallow is set once Select is held so that its release does not also
	// switch modes.
	swallow bool
}

// NewDispatcher creates a new dispatcher starting in PatternMode.
func NewDispatcher(ring Ring, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		ring:   ring,
		logger: logger,
	}
}

// SetIndicator sets the indicator to show the mode on and shows the current
// mode right away. A nil indicator disables it.
func (d *Dispatcher) SetIndicator(indicator Indicator) {
	d.indicator = indicator
	d.showMode()
}

// Mode returns the current adjustment mode.
func (d *Dispatcher) Mode() Mode {
	return d.mode
}

// Handle handles a single button event. It returns true if the ring state
// changed.
func (d *Dispatcher) Handle(ev button.Event) bool {
	d.logger.Debug(
		"handling button event",
		"button", ev.Button,
		"kind", ev.Kind,
		"duration", ev.Duration)

	switch ev.Kind {
	case button.Held:
		if ev.Button != button.Select {
			return false
		}
		d.swallow = true
		return d.togglePower()

	case button.Released:
		// handled below

	default:
		return false
	}

	switch ev.Button {
	case button.Select:
		if d.swallow {
			d.swallow = false
			return false
		}
		d.mode = (d.mode + 1) % modeCount
		d.logger.Info("adjusting setting", "mode", d.mode)
		d.showMode()
		return false

	case button.Up:
		return d.adjust(+1)

	case button.Down:
		return d.adjust(-1)

	default:
		return false
	}
}

func (d *Dispatcher) adjust(delta int) bool {
	if !d.ring.Running() {
		return false
	}

	switch d.mode {
	case PatternMode:
		return d.ring.UpdatePattern(delta)
	case SpeedMode:
		return d.ring.UpdateSpeed(delta)
	case BrightnessMode:
		return d.ring.UpdateBrightness(delta)
	default:
		return false
	}
}

func (d *Dispatcher) togglePower() bool {
	if d.ring.Running() {
		d.ring.Shutdown()
	} else {
		d.ring.StartUp()
	}
	d.showMode()
	return true
}

func (d *Dispatcher) showMode() {
	if d.indicator != nil {
		d.indicator.ShowMode(d.mode, d.ring.Running())
	}
}
