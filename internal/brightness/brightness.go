// Package brightness maps perceptual brightness percentages to 8-bit duty
// cycles and applies the global brightness level.
package brightness

import "math"

// MaxPercent is the brightest perceptual percentage.
const MaxPercent = 100

// dutyCycles maps a whole percentage to its 8-bit duty cycle. Apparent
// brightness is closer to logarithmic than linear, so the steps grow towards
// the top of the table. There are 101 values, 0 to 100 inclusive.
var dutyCycles = [MaxPercent + 1]uint8{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9,
	10, 12, 13, 14, 15, 16, 17, 18, 20, 21,
	22, 23, 24, 26, 27, 28, 30, 31, 32, 33,
	35, 36, 38, 39, 40, 42, 43, 45, 46, 48,
	49, 51, 53, 54, 56, 57, 59, 61, 63, 64,
	66, 68, 70, 72, 74, 76, 78, 80, 82, 84,
	86, 88, 90, 93, 95, 97, 100, 102, 105, 107,
	110, 113, 116, 118, 121, 124, 128, 131, 134, 137,
	141, 145, 148, 152, 156, 160, 165, 169, 174, 179,
	184, 189, 195, 201, 207, 214, 221, 229, 237, 245, 255,
}

// DutyCycle returns the duty cycle for the given brightness percentage. The
// percentage is clamped to [0, 100] first.
func DutyCycle(percent int) uint8 {
	return dutyCycles[Clamp(percent, 0, MaxPercent)]
}

// Scale scales a pattern brightness by the global brightness level. A level
// equal to maxLevel leaves the percentage untouched. The result is not
// clamped.
func Scale(percent, level, maxLevel int) int {
	if level == maxLevel {
		return percent
	}
	return Round(float64(level*percent) / float64(maxLevel))
}

// Round rounds half away from zero.
func Round(v float64) int {
	return int(math.Round(v))
}

// Clamp forces v into [lo, hi].
func Clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
