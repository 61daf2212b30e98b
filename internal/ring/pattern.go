package ring

import (
	"fmt"
	"math"
	"math/rand"

	"libdb.so/ringglow/internal/brightness"
)

// Pattern selects the animation drawn on the ring.
type Pattern int

const (
	// JustOn lights every output at full brightness.
	JustOn Pattern = iota
	// ChaseClockwise fades every output linearly behind a clockwise lead.
	ChaseClockwise
	// ChaseAntiClockwise fades every output linearly behind an anticlockwise
	// lead.
	ChaseAntiClockwise
	// ChaseBoth runs both chases at once, mirrored at 180 degrees.
	ChaseBoth
	// WaveClockwise brightens outputs on both sides of a clockwise lead.
	WaveClockwise
	// WaveAntiClockwise brightens outputs on both sides of an anticlockwise
	// lead.
	WaveAntiClockwise
	// Throb pulses every output twice per revolution following a cosine.
	Throb
	// ThrobSine is Throb following a sine instead.
	ThrobSine
	// Heartbeat pulses every output twice per revolution, at 135 and 225
	// degrees.
	Heartbeat
	// Raindrop flashes every output once per revolution at a random angle.
	Raindrop
	// Flames flickers every output like a candle.
	Flames
	// Static flickers every output like a candle with extra noise on top.
	Static

	// PatternCount is the number of selectable patterns.
	PatternCount = iota
)

// PatternOff is the explicit off selector. Frames with this pattern do not
// change any output.
const PatternOff Pattern = 0xFF

var patternNames = [PatternCount]string{
	"just-on",
	"chase-clockwise",
	"chase-anticlockwise",
	"chase-both",
	"wave-clockwise",
	"wave-anticlockwise",
	"throb",
	"throb-sine",
	"heartbeat",
	"raindrop",
	"flames",
	"static",
}

// Valid returns true if p selects a pattern.
func (p Pattern) Valid() bool {
	return p >= 0 && p < PatternCount
}

func (p Pattern) String() string {
	switch {
	case p.Valid():
		return patternNames[p]
	case p == PatternOff:
		return "off"
	default:
		return fmt.Sprintf("Pattern(%d)", int(p))
	}
}

// ParsePattern parses a pattern from its name.
func ParsePattern(name string) (Pattern, error) {
	for i, n := range patternNames {
		if n == name {
			return Pattern(i), nil
		}
	}
	if name == "off" {
		return PatternOff, nil
	}
	return 0, fmt.Errorf("unknown pattern %q", name)
}

// frame is the state shared by every output for a single frame.
type frame struct {
	lead  Lead
	level int
	rand  *rand.Rand
}

// scale applies the global brightness level.
func (f *frame) scale(percent int) int {
	return brightness.Scale(percent, f.level, MaxBrightness)
}

// intn returns a uniformly random integer in [lo, hi].
func (f *frame) intn(lo, hi int) int {
	return lo + f.rand.Intn(hi-lo+1)
}

type patternFunc func(f *frame, o *Output)

var patternFuncs = [PatternCount]patternFunc{
	JustOn:             justOn,
	ChaseClockwise:     chaseClockwise,
	ChaseAntiClockwise: chaseAntiClockwise,
	ChaseBoth:          chaseBoth,
	WaveClockwise:      waveClockwise,
	WaveAntiClockwise:  waveAntiClockwise,
	Throb:              throb,
	ThrobSine:          throbSine,
	Heartbeat:          heartbeat,
	Raindrop:           raindrop,
	Flames:             flames,
	Static:             static,
}

// fn returns the function drawing the pattern, or nil if nothing draws it.
func (p Pattern) fn() patternFunc {
	if !p.Valid() {
		return nil
	}
	return patternFuncs[p]
}

func justOn(f *frame, o *Output) {
	o.Brightness = f.scale(brightness.MaxPercent)
}

// clockwiseDistance is how far the lead has travelled clockwise past o.
func clockwiseDistance(lead Lead, o *Output) int {
	return int(lead.Angle+360-o.Angle) % 360
}

// antiClockwiseDistance is how far a lead mirrored to run anticlockwise has
// travelled past o.
func antiClockwiseDistance(lead Lead, o *Output) int {
	return int(lead.Angle+360+o.Angle) % 360
}

func chasePercent(distance int) int {
	return brightness.Round(100 * float64(360-distance) / 360)
}

func chaseClockwise(f *frame, o *Output) {
	o.Brightness = f.scale(chasePercent(clockwiseDistance(f.lead, o)))
}

func chaseAntiClockwise(f *frame, o *Output) {
	o.Brightness = f.scale(chasePercent(antiClockwiseDistance(f.lead, o)))
}

func chaseBoth(f *frame, o *Output) {
	distance := min(clockwiseDistance(f.lead, o), antiClockwiseDistance(f.lead, o))
	o.Brightness = f.scale(chasePercent(distance))
}

// foldAngle folds an angle into [-180, 180).
func foldAngle(angle int) int {
	return ((angle+180)%360+360)%360 - 180
}

func wavePercent(difference int) int {
	difference = foldAngle(difference)
	if difference < 0 {
		difference = -difference
	}
	return brightness.Round(100 * float64(180-difference) / 180)
}

func waveClockwise(f *frame, o *Output) {
	o.Brightness = f.scale(wavePercent(int(f.lead.Angle - o.Angle)))
}

func waveAntiClockwise(f *frame, o *Output) {
	o.Brightness = f.scale(wavePercent(int((360 - f.lead.Angle) - o.Angle)))
}

// throbRadians maps the lead angle to two full periods per revolution.
func throbRadians(lead Lead) float64 {
	return 2 * math.Abs(180-lead.Angle) * math.Pi / 180
}

func throb(f *frame, o *Output) {
	o.Brightness = f.scale(brightness.Round(50 * (1 + math.Cos(throbRadians(f.lead)))))
}

func throbSine(f *frame, o *Output) {
	o.Brightness = f.scale(brightness.Round(50 * (1 + math.Sin(throbRadians(f.lead)))))
}

const (
	heartbeatFirst  = 135
	heartbeatSecond = 225
)

func heartbeatPercent(lead Lead) int {
	delta := min(math.Abs(heartbeatSecond-lead.Angle), math.Abs(heartbeatFirst-lead.Angle))
	percent := brightness.Round(100 * delta / heartbeatFirst)
	return brightness.Clamp((100-percent)*2-100, 0, brightness.MaxPercent)
}

func heartbeat(f *frame, o *Output) {
	o.Brightness = f.scale(heartbeatPercent(f.lead))
}

// raindropOffset returns a random angle at which a raindrop starts.
func raindropOffset(r *rand.Rand) int {
	return r.Intn(360 - RaindropAngle)
}

func raindropPercent(lead Lead, offset int) int {
	position := int(lead.Angle - float64(offset))
	switch {
	case position >= 0 && position < RampUpAngle:
		return brightness.Round(100 * float64(position) / RampUpAngle)
	case position >= RampUpAngle && position < RaindropAngle:
		return 100 - brightness.Round(100*float64(position-RampUpAngle)/RampDownAngle)
	default:
		return 0
	}
}

func raindrop(f *frame, o *Output) {
	o.Brightness = f.scale(raindropPercent(f.lead, o.Scratch))
}

// flicker random-walks the scratch level of o.
func flicker(f *frame, o *Output) int {
	o.Scratch = brightness.Clamp(o.Scratch+f.intn(-4, 4), 0, brightness.MaxPercent)
	return o.Scratch
}

func flames(f *frame, o *Output) {
	o.Brightness = f.scale(flicker(f, o))
}

func static(f *frame, o *Output) {
	level := brightness.Clamp(flicker(f, o)+f.intn(-10, 40), 0, brightness.MaxPercent)
	o.Brightness = f.scale(level)
}
