package button

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeInput struct {
	now    time.Time
	levels []bool // consumed one per read; the last level sticks
}

func (f *fakeInput) Get() bool {
	level := f.levels[0]
	if len(f.levels) > 1 {
		f.levels = f.levels[1:]
	}
	return level
}

func (f *fakeInput) set(levels ...bool) {
	f.levels = levels
}

func (f *fakeInput) config() Config {
	return Config{
		HoldTimeout: time.Second,
		Now:         func() time.Time { return f.now },
		Sleep:       func(d time.Duration) { f.now = f.now.Add(d) },
	}
}

func TestButtonPressRelease(t *testing.T) {
	in := &fakeInput{now: time.Unix(1000, 0)}
	in.set(false)

	b := New(Up, in, in.config())
	assert.False(t, b.Down())

	_, ok := b.Poll()
	assert.False(t, ok, "no change")

	in.now = in.now.Add(500 * time.Millisecond)
	in.set(true)
	ev, ok := b.Poll()
	assert.True(t, ok)
	assert.Equal(t, Up, ev.Button)
	assert.Equal(t, Pressed, ev.Kind)
	assert.Equal(t, 510*time.Millisecond, ev.Duration, "idle time before the press")
	assert.True(t, b.Down())

	in.now = in.now.Add(200 * time.Millisecond)
	in.set(false)
	ev, ok = b.Poll()
	assert.True(t, ok)
	assert.Equal(t, Released, ev.Kind)
	assert.Equal(t, 210*time.Millisecond, ev.Duration)
}

func TestButtonBounceIgnored(t *testing.T) {
	in := &fakeInput{now: time.Unix(1000, 0)}
	in.set(false)
	b := New(Select, in, in.config())

	in.set(true, false)
	_, ok := b.Poll()
	assert.False(t, ok)
	assert.False(t, b.Down())

	in.set(false, true)
	_, ok = b.Poll()
	assert.False(t, ok)
	assert.False(t, b.Down())
}

func TestButtonHeldOncePerPress(t *testing.T) {
	in := &fakeInput{now: time.Unix(1000, 0)}
	in.set(false)
	b := New(Select, in, in.config())

	in.set(true)
	ev, ok := b.Poll()
	assert.True(t, ok)
	assert.Equal(t, Pressed, ev.Kind)

	in.now = in.now.Add(500 * time.Millisecond)
	_, ok = b.Poll()
	assert.False(t, ok, "not held long enough")

	in.now = in.now.Add(500 * time.Millisecond)
	ev, ok = b.Poll()
	assert.True(t, ok)
	assert.Equal(t, Held, ev.Kind)
	assert.GreaterOrEqual(t, ev.Duration, time.Second)

	in.now = in.now.Add(5 * time.Second)
	_, ok = b.Poll()
	assert.False(t, ok, "held is only sent once")

	in.set(false)
	ev, ok = b.Poll()
	assert.True(t, ok)
	assert.Equal(t, Released, ev.Kind)

	in.set(true)
	_, ok = b.Poll()
	assert.True(t, ok)
	in.now = in.now.Add(2 * time.Second)
	ev, ok = b.Poll()
	assert.True(t, ok)
	assert.Equal(t, Held, ev.Kind, "rearmed by the next press")
}

func TestButtonActiveLow(t *testing.T) {
	in := &fakeInput{now: time.Unix(1000, 0)}
	in.set(true)

	cfg := in.config()
	cfg.ActiveLow = true
	b := New(Down, in, cfg)
	assert.False(t, b.Down())

	in.set(false)
	ev, ok := b.Poll()
	assert.True(t, ok)
	assert.Equal(t, Pressed, ev.Kind)
}

func TestPollAll(t *testing.T) {
	up := &fakeInput{now: time.Unix(1000, 0)}
	up.set(false)
	down := &fakeInput{now: time.Unix(1000, 0)}
	down.set(false)

	buttons := []*Button{
		New(Up, up, up.config()),
		New(Down, down, down.config()),
	}

	down.set(true)

	var events []Event
	PollAll(buttons, func(ev Event) { events = append(events, ev) })

	if assert.Len(t, events, 1) {
		assert.Equal(t, Down, events[0].Button)
		assert.Equal(t, Pressed, events[0].Kind)
	}
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "select", Select.String())
	assert.Equal(t, "held", Held.String())
	assert.Equal(t, "ID(9)", ID(9).String())
}
