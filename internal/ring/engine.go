package ring

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"libdb.so/ringglow/internal/brightness"
	"libdb.so/ringglow/internal/settings"
)

// Options are the collaborators of an Engine.
type Options struct {
	// Driver receives the duty cycle of every channel. It is required.
	Driver Driver
	// Store holds the persisted settings. It is required.
	Store *settings.Store
	// Clock is the frame time source. SystemClock is used if nil.
	Clock Clock
	// Rand is the randomness source for raindrops and flicker. A time-seeded
	// source is used if nil.
	Rand *rand.Rand
	// Logger is used to log settings changes and storage failures.
	Logger *slog.Logger
}

// Engine animates a ring of outputs. It is not safe for concurrent use: Poll
// and the control methods must be called from the same goroutine.
type Engine struct {
	outputs []Output
	driver  Driver
	store   *settings.Store
	clock   Clock
	rand    *rand.Rand
	logger  *slog.Logger

	// settings is the record as of the last load. It is only used when the
	// store cannot be read.
	settings settings.Settings
	periodMs uint32

	startMs        uint32
	lastRevolution uint32
	running        bool
}

// NewEngine creates a new engine driving the given channels, in ring order.
// The engine starts running immediately.
func NewEngine(channels []Channel, opts Options) (*Engine, error) {
	if len(channels) == 0 {
		return nil, errors.New("no channels given")
	}
	if opts.Driver == nil {
		return nil, errors.New("no driver given")
	}
	if opts.Store == nil {
		return nil, errors.New("no settings store given")
	}

	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Engine{
		outputs: make([]Output, len(channels)),
		driver:  opts.Driver,
		store:   opts.Store,
		clock:   opts.Clock,
		rand:    opts.Rand,
		logger:  opts.Logger,
	}

	spacing := 360 / float64(len(channels))
	for i, ch := range channels {
		e.outputs[i] = Output{
			Index:   i,
			Angle:   spacing * float64(i),
			Channel: ch,
		}
	}
	e.populateRaindrops()

	s, err := e.store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load settings")
	}
	e.apply(s)

	e.startMs = e.clock.Millis()
	e.running = true

	return e, nil
}

// Outputs returns a copy of the outputs as of the last frame.
func (e *Engine) Outputs() []Output {
	outputs := make([]Output, len(e.outputs))
	copy(outputs, e.outputs)
	return outputs
}

// Running returns true if the engine is animating the ring.
func (e *Engine) Running() bool {
	return e.running
}

// Settings returns the settings as of the last frame or change. It does not
// touch the store.
func (e *Engine) Settings() settings.Settings {
	return e.settings
}

// Period returns the time of a single revolution of the lead.
func (e *Engine) Period() time.Duration {
	return time.Duration(e.periodMs) * time.Millisecond
}

// Lead returns the lead position for the current time.
func (e *Engine) Lead() Lead {
	// Unsigned subtraction keeps the elapsed time right across a single
	// wraparound of the clock.
	return leadAt(e.clock.Millis()-e.startMs, e.periodMs)
}

// Poll draws a single frame. It does nothing while the engine is shut down.
func (e *Engine) Poll() {
	if !e.running {
		return
	}

	s := e.load()
	lead := e.Lead()
	pattern := Pattern(s.Pattern)

	if pattern == Raindrop && lead.Revolution != e.lastRevolution {
		e.populateRaindrops()
	}

	if fn := pattern.fn(); fn != nil {
		f := frame{
			lead:  lead,
			level: forceRange(s.Brightness, MinBrightness, MaxBrightness),
			rand:  e.rand,
		}
		for i := range e.outputs {
			fn(&f, &e.outputs[i])
		}
		e.writeBrightnesses()
	}

	e.lastRevolution = lead.Revolution
}

// StartUp restarts the animation from the beginning of a revolution if the
// engine is shut down, drawing the first frame immediately.
func (e *Engine) StartUp() {
	if e.running {
		return
	}

	e.logger.Info("starting up ring")

	e.startMs = e.clock.Millis()
	e.running = true
	e.Poll()
}

// Shutdown stops the animation and turns every channel off. The channels are
// written directly, bypassing the brightness mapping.
func (e *Engine) Shutdown() {
	if e.running {
		e.logger.Info("shutting down ring")
	}

	e.running = false
	for _, o := range e.outputs {
		e.driver.Write(o.Channel, 0)
	}
	e.flush()
}

// SetBrightness sets the global brightness level, clamped to
// [MinBrightness, MaxBrightness]. It returns true if the level changed.
func (e *Engine) SetBrightness(level int) bool {
	return e.updateBrightness(func(int) int { return level })
}

// UpdateBrightness adjusts the global brightness level by delta.
func (e *Engine) UpdateBrightness(delta int) bool {
	return e.updateBrightness(func(level int) int { return level + delta })
}

// SetBrightnessPercent sets the global brightness level from a percentage of
// its range.
func (e *Engine) SetBrightnessPercent(percent int) bool {
	return e.SetBrightness(levelFromPercent(percent, MinBrightness, MaxBrightness))
}

func (e *Engine) updateBrightness(f func(int) int) bool {
	return e.update(func(s *settings.Settings) bool {
		level := forceRange(f(s.Brightness), MinBrightness, MaxBrightness)
		if level == s.Brightness {
			return false
		}
		s.Brightness = level
		e.logger.Info("brightness changed", "level", level)
		return true
	})
}

// SetSpeed sets the lead speed in revolutions per minute, clamped to
// [MinSpeed, MaxSpeed]. It returns true if the speed changed.
func (e *Engine) SetSpeed(rpm int) bool {
	return e.updateSpeed(func(int) int { return rpm })
}

// UpdateSpeed adjusts the lead speed by delta steps of SpeedStep.
func (e *Engine) UpdateSpeed(delta int) bool {
	return e.updateSpeed(func(rpm int) int { return rpm + delta*SpeedStep })
}

// SetSpeedPercent sets the lead speed from a percentage of its range.
func (e *Engine) SetSpeedPercent(percent int) bool {
	return e.SetSpeed(levelFromPercent(percent, MinSpeed, MaxSpeed))
}

func (e *Engine) updateSpeed(f func(int) int) bool {
	return e.update(func(s *settings.Settings) bool {
		rpm := forceRange(f(s.Speed), MinSpeed, MaxSpeed)
		if rpm == s.Speed {
			return false
		}
		s.Speed = rpm
		e.logger.Info("speed changed", "rpm", rpm)
		return true
	})
}

// SetPattern selects a pattern. The index wraps around PatternCount. It
// returns true if the pattern changed.
func (e *Engine) SetPattern(index int) bool {
	return e.updatePattern(func(int) int { return index })
}

// UpdatePattern moves the pattern selection by delta, wrapping around in
// both directions.
func (e *Engine) UpdatePattern(delta int) bool {
	return e.updatePattern(func(p int) int { return p + delta })
}

func (e *Engine) updatePattern(f func(int) int) bool {
	return e.update(func(s *settings.Settings) bool {
		pattern := Pattern(wrap(f(s.Pattern), PatternCount))
		if int(pattern) == s.Pattern {
			return false
		}
		s.Pattern = int(pattern)
		e.logger.Info("pattern changed", "pattern", pattern)
		return true
	})
}

// update re-reads the settings, mutates them and writes them back if
// mutate reports a change. A change that cannot be saved is dropped.
func (e *Engine) update(mutate func(*settings.Settings) bool) bool {
	s := e.load()
	if !mutate(&s) {
		return false
	}

	if err := e.store.Save(s); err != nil {
		e.logger.Warn(
			"failed to save settings, change dropped",
			"err", err)
		return false
	}

	e.apply(s)
	return true
}

// load reads the settings from the store, falling back to the last known
// settings if the store fails.
func (e *Engine) load() settings.Settings {
	s, err := e.store.Load()
	if err != nil {
		e.logger.Warn(
			"failed to load settings, using last known",
			"err", err)
		return e.settings
	}

	e.apply(s)
	return s
}

// apply updates the state derived from the settings.
func (e *Engine) apply(s settings.Settings) {
	e.settings = s
	e.periodMs = revolutionPeriod(s.Speed)
}

func (e *Engine) populateRaindrops() {
	for i := range e.outputs {
		e.outputs[i].Scratch = raindropOffset(e.rand)
	}
}

func (e *Engine) writeBrightnesses() {
	for _, o := range e.outputs {
		e.driver.Write(o.Channel, brightness.DutyCycle(o.Brightness))
	}
	e.flush()
}

func (e *Engine) flush() {
	if f, ok := e.driver.(Flusher); ok {
		f.Flush()
	}
}

// levelFromPercent maps a percentage onto [lo, hi].
func levelFromPercent(percent, lo, hi int) int {
	percent = brightness.Clamp(percent, 0, brightness.MaxPercent)
	return lo + brightness.Round(float64(percent*(hi-lo))/brightness.MaxPercent)
}

// wrap returns v modulo n in [0, n).
func wrap(v, n int) int {
	return (v%n + n) % n
}
