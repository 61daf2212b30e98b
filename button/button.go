// Package button debounces push buttons read by polling. It is shared by the
// controller firmware and the host GPIO backend, so it only depends on the
// standard library.
package button

import (
	"fmt"
	"time"
)

// ID identifies a button.
type ID uint8

const (
	// Select cycles through the adjustable settings and toggles power when
	// held.
	Select ID = iota
	// Up increases the selected setting.
	Up
	// Down decreases the selected setting.
	Down
)

func (id ID) String() string {
	switch id {
	case Select:
		return "select"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("ID(%d)", uint8(id))
	}
}

// Kind is the kind of a button event.
type Kind uint8

const (
	_ Kind = iota
	// Pressed is sent when a button goes down.
	Pressed
	// Released is sent when a button comes back up.
	Released
	// Held is sent once per press when a button stays down for the hold
	// timeout.
	Held
)

func (k Kind) String() string {
	switch k {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	case Held:
		return "held"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Event is a debounced button event.
type Event struct {
	Button ID
	Kind   Kind
	// Duration is how long the button spent in its previous state for
	// Pressed and Released, or how long it has been down for Held.
	Duration time.Duration
}

// Pin is a digital input. machine.Pin implements it.
type Pin interface {
	Get() bool
}

// PinFunc is a function that implements Pin.
type PinFunc func() bool

// Get implements Pin.
func (f PinFunc) Get() bool { return f() }

const (
	DefaultSettle      = 10 * time.Millisecond
	DefaultHoldTimeout = 10 * time.Second
)

// Config configures a Button.
type Config struct {
	// Settle is the time between the two reads of a single poll. Both reads
	// must agree for a change to count.
	Settle time.Duration
	// HoldTimeout is how long a button must stay down to send Held.
	HoldTimeout time.Duration
	// ActiveLow is true if the pin reads low while the button is down.
	ActiveLow bool

	// Now and Sleep replace time.Now and time.Sleep if set.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Button debounces a single button.
type Button struct {
	id  ID
	pin Pin
	cfg Config

	down       bool
	lastChange time.Time
	holdArmed  bool
}

// New creates a new button. The current pin state is taken as the initial
// state without sending an event.
func New(id ID, pin Pin, cfg Config) *Button {
	if cfg.Settle == 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.HoldTimeout == 0 {
		cfg.HoldTimeout = DefaultHoldTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}

	b := &Button{
		id:         id,
		pin:        pin,
		cfg:        cfg,
		lastChange: cfg.Now(),
		holdArmed:  true,
	}
	b.down = b.read()
	return b
}

// ID returns the button ID.
func (b *Button) ID() ID {
	return b.id
}

// Down returns true if the button was down as of the last poll.
func (b *Button) Down() bool {
	return b.down
}

func (b *Button) read() bool {
	return b.pin.Get() != b.cfg.ActiveLow
}

// Poll reads the button and returns the event it caused, if any. It blocks
// for the settle time.
func (b *Button) Poll() (Event, bool) {
	now := b.cfg.Now()
	first := b.read()
	b.cfg.Sleep(b.cfg.Settle)
	second := b.read()

	if first != second {
		// Still bouncing.
		return Event{}, false
	}

	duration := now.Sub(b.lastChange)

	if first != b.down {
		b.down = first
		b.lastChange = now

		kind := Released
		if b.down {
			kind = Pressed
			b.holdArmed = true
		}

		return Event{Button: b.id, Kind: kind, Duration: duration}, true
	}

	if b.down && b.holdArmed && duration >= b.cfg.HoldTimeout {
		b.holdArmed = false
		return Event{Button: b.id, Kind: Held, Duration: duration}, true
	}

	return Event{}, false
}

// PollAll polls every button in order and calls f for each event.
func PollAll(buttons []*Button, f func(Event)) {
	for _, b := range buttons {
		if ev, ok := b.Poll(); ok {
			f(ev)
		}
	}
}
