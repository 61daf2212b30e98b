package ringglow

import (
	"libdb.so/ringglow/internal/control"
	"libdb.so/ringglow/internal/ring"
)

// frameBuffer is a ring.Driver for a remote controller. Channels are numbered
// from 0 in ring order. Writes are kept until the frame is taken.
type frameBuffer struct {
	duty  []uint8
	dirty bool
}

var (
	_ ring.Driver  = (*frameBuffer)(nil)
	_ ring.Flusher = (*frameBuffer)(nil)
)

// newFrameBuffer creates a new frame buffer. Every channel starts off.
func newFrameBuffer(numChannels int) *frameBuffer {
	return &frameBuffer{duty: make([]uint8, numChannels)}
}

// Channels returns the channel handles of the buffer, in ring order.
func (f *frameBuffer) Channels() []ring.Channel {
	channels := make([]ring.Channel, len(f.duty))
	for i := range channels {
		channels[i] = ring.Channel(i)
	}
	return channels
}

// Write implements ring.Driver. Unknown channels are ignored.
func (f *frameBuffer) Write(ch ring.Channel, duty uint8) {
	if ch >= 0 && int(ch) < len(f.duty) {
		f.duty[ch] = duty
	}
}

// Flush implements ring.Flusher. It marks the frame as complete.
func (f *frameBuffer) Flush() {
	f.dirty = true
}

// Take returns the last complete frame if it has not been taken yet. The
// returned slice is only valid until the next Write.
func (f *frameBuffer) Take() ([]uint8, bool) {
	if !f.dirty {
		return nil, false
	}
	f.dirty = false
	return f.duty, true
}

// indicatorLights is a control.Indicator for a remote controller. The last
// shown lights are kept until taken.
type indicatorLights struct {
	lights uint8
	dirty  bool
}

var _ control.Indicator = (*indicatorLights)(nil)

// ShowMode implements control.Indicator.
func (l *indicatorLights) ShowMode(mode control.Mode, lit bool) {
	l.lights = control.Lights(mode, lit)
	l.dirty = true
}

// Take returns the lights if they changed since the last call.
func (l *indicatorLights) Take() (uint8, bool) {
	if !l.dirty {
		return 0, false
	}
	l.dirty = false
	return l.lights, true
}
