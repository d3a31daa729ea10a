// Package theory holds the small amount of pitch arithmetic and chord
// vocabulary the interpreter needs.
package theory

import (
	"math"
	"sort"
	"strconv"

	"golang.org/x/exp/constraints"
)

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClass returns pitch mod 12.
func PitchClass(pitch int) int {
	return ((pitch % 12) + 12) % 12
}

// Octave returns the scientific octave number, so that 60 is in octave 4.
func Octave(pitch int) int {
	return pitch/12 - 1
}

// PitchClassName returns the sharp spelling of a pitch class.
func PitchClassName(pc int) string {
	return pitchClassNames[PitchClass(pc)]
}

// PitchClassFromName is the inverse of PitchClassName. Flats are accepted.
func PitchClassFromName(name string) (int, bool) {
	for i, n := range pitchClassNames {
		if n == name {
			return i, true
		}
	}
	if len(name) == 2 && name[1] == 'b' {
		if pc, ok := PitchClassFromName(name[:1]); ok {
			return PitchClass(pc - 1), true
		}
	}
	return 0, false
}

// NoteName renders a pitch such as 60 as "C4".
func NoteName(pitch int) string {
	return PitchClassName(pitch) + strconv.Itoa(Octave(pitch))
}

// DistinctPitchClasses returns the sorted set of pitch classes of pitches.
func DistinctPitchClasses(pitches []int) []int {
	var seen [12]bool
	for _, p := range pitches {
		seen[PitchClass(p)] = true
	}
	out := make([]int, 0, 12)
	for pc, ok := range seen {
		if ok {
			out = append(out, pc)
		}
	}
	return out
}

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Abs returns the absolute value of v.
func Abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Median returns the median of values; the mean of the middle pair for even lengths.
// It returns 0 for an empty slice.
func Median[T constraints.Integer](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]T, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
}

// Round rounds half away from zero and converts to int.
func Round(v float64) int {
	return int(math.Round(v))
}
