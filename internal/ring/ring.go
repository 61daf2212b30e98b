// Package ring animates a ring of single-intensity lights. Every light sits
// at a fixed angle on the ring, and a virtual lead rotates around it at the
// configured speed. Each frame, the selected pattern computes the brightness
// of every light from its position relative to the lead.
package ring

import (
	"time"

	"libdb.so/ringglow/internal/settings"
)

const (
	MinBrightness     = 1
	MaxBrightness     = 20
	DefaultBrightness = 18
)

const (
	// MinSpeed and MaxSpeed bound the lead speed in revolutions per minute.
	MinSpeed     = 6
	MaxSpeed     = 60
	SpeedStep    = 3
	DefaultSpeed = 18
)

const (
	// RaindropAngle is the angle the lead travels while a raindrop lasts.
	RaindropAngle = 12
	// RampUpAngle is the part of RaindropAngle a raindrop spends brightening.
	RampUpAngle   = 3
	RampDownAngle = RaindropAngle - RampUpAngle
)

const msPerMinute = 60 * 1000

// DefaultSettings returns the settings a ring starts with on uninitialized
// storage.
func DefaultSettings() settings.Settings {
	return settings.Settings{
		Version:    settings.Version,
		Pattern:    int(ChaseClockwise),
		Brightness: DefaultBrightness,
		Speed:      DefaultSpeed,
	}
}

// Channel is an opaque handle to a physical output channel.
type Channel int

// Driver asserts intensities on physical channels.
type Driver interface {
	// Write sets the duty cycle of the given channel.
	Write(ch Channel, duty uint8)
}

// Flusher is optionally implemented by a Driver that buffers writes. Flush is
// called once all channels have been written for a frame.
type Flusher interface {
	Flush()
}

// Clock is a monotonic millisecond clock. It wraps around after 2^32
// milliseconds.
type Clock interface {
	Millis() uint32
}

// ClockFunc is a function that implements Clock.
type ClockFunc func() uint32

// Millis implements Clock.
func (f ClockFunc) Millis() uint32 { return f() }

type systemClock struct {
	start time.Time
}

// SystemClock returns a Clock counting milliseconds since it was created.
func SystemClock() Clock {
	return systemClock{start: time.Now()}
}

func (c systemClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// Output describes a single light on the ring.
type Output struct {
	// Index is the position of the light in the ring, starting at 0.
	Index int
	// Angle is the fixed position of the light on the ring in degrees.
	Angle float64
	// Brightness is the brightness computed for the current frame as a
	// percentage.
	Brightness int
	// Channel is the physical channel of the light.
	Channel Channel
	// Scratch is pattern-private state. Switching patterns does not reset it,
	// so every pattern using it must tolerate arbitrary values.
	Scratch int
}

// Lead is the position of the lead for a single frame.
type Lead struct {
	// Angle is the angle of the lead in degrees, in [0, 360).
	Angle float64
	// Revolution is the number of full revolutions since the ring started.
	Revolution uint32
}

// revolutionPeriod returns the time of a single revolution in milliseconds.
func revolutionPeriod(speed int) uint32 {
	return uint32(msPerMinute / forceRange(speed, MinSpeed, MaxSpeed))
}

// forceRange forces a setting level into [lo, hi].
func forceRange(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// leadAt returns the lead position after the given elapsed time.
func leadAt(elapsedMs, periodMs uint32) Lead {
	return Lead{
		Angle:      360 * float64(elapsedMs%periodMs) / float64(periodMs),
		Revolution: elapsedMs / periodMs,
	}
}
