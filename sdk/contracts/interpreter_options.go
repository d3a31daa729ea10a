package contracts

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
)

// ErrInvalidOptions is wrapped by every interpreter option validation failure.
var ErrInvalidOptions = errors.New("invalid interpreter options")

// InterpreterOptions configures the chord interpreter. It is fixed once the interpreter is built.
type InterpreterOptions struct {
	ChordWindowLeft      time.Duration // Base aggregation window for the left hand.
	ChordWindowRight     time.Duration // Base aggregation window for the right hand.
	EarlyCloseCountLeft  int           // Note count that closes a fast left-hand window at once.
	EarlyCloseCountRight int           // Note count that closes a fast right-hand window at once.
	RollExtensionLeft    time.Duration // Upper bound a rolled left-hand chord may stretch to.
	RollExtensionRight   time.Duration // Upper bound a rolled right-hand chord may stretch to.

	SplitInitial        int           // Split point before any adaptation.
	SplitMin            int           // Lowest split point the estimator may choose.
	SplitMax            int           // Highest split point the estimator may choose.
	SplitAdaptInterval  time.Duration // Period of the split estimator.
	SplitShiftThreshold int           // Minimum candidate distance, in semitones, before the split moves.

	LeftBassArpGap          time.Duration // Left-hand single-note windows longer than this are bass lines.
	VelocityBlendLeft       float64       // 0 keeps raw velocities, 1 equalizes to the median.
	VelocityBlendRight      float64
	ClusterThreshold        int  // Pitch-class count at which a window becomes a cluster.
	IncludeSustainedInChord bool // Fold pedal-held notes of the same hand into closing windows.

	Logger     Logger
	LogLevel   LogLevel
	ChordNamer ChordNamer
	Clock      clock.Clock
}

// DefaultInterpreterOptions returns the stock tuning.
func DefaultInterpreterOptions() InterpreterOptions {
	return InterpreterOptions{
		ChordWindowLeft:         80 * time.Millisecond,
		ChordWindowRight:        50 * time.Millisecond,
		EarlyCloseCountLeft:     3,
		EarlyCloseCountRight:    4,
		RollExtensionLeft:       180 * time.Millisecond,
		RollExtensionRight:      110 * time.Millisecond,
		SplitInitial:            60,
		SplitMin:                52,
		SplitMax:                64,
		SplitAdaptInterval:      time.Second,
		SplitShiftThreshold:     5,
		LeftBassArpGap:          120 * time.Millisecond,
		VelocityBlendLeft:       0.3,
		VelocityBlendRight:      0.2,
		ClusterThreshold:        7,
		IncludeSustainedInChord: true,
	}
}

// Window returns the base window for a hand.
func (o InterpreterOptions) Window(h Hand) time.Duration {
	if h == LeftHand {
		return o.ChordWindowLeft
	}
	return o.ChordWindowRight
}

// EarlyCloseCount returns the early-close note count for a hand.
func (o InterpreterOptions) EarlyCloseCount(h Hand) int {
	if h == LeftHand {
		return o.EarlyCloseCountLeft
	}
	return o.EarlyCloseCountRight
}

// RollExtension returns the roll-extension budget for a hand.
func (o InterpreterOptions) RollExtension(h Hand) time.Duration {
	if h == LeftHand {
		return o.RollExtensionLeft
	}
	return o.RollExtensionRight
}

// VelocityBlend returns the velocity blend factor for a hand.
func (o InterpreterOptions) VelocityBlend(h Hand) float64 {
	if h == LeftHand {
		return o.VelocityBlendLeft
	}
	return o.VelocityBlendRight
}

// Validate reports every inconsistent setting at once.
func (o InterpreterOptions) Validate() error {
	var err error
	invalid := func(format string, args ...interface{}) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidOptions}, args...)...))
	}

	for _, h := range []Hand{LeftHand, RightHand} {
		if o.Window(h) <= 0 {
			invalid("%s chord window must be positive, got %s", h, o.Window(h))
		}
		if o.RollExtension(h) < o.Window(h) {
			invalid("%s roll extension %s is shorter than its window %s", h, o.RollExtension(h), o.Window(h))
		}
		if o.EarlyCloseCount(h) < 2 {
			invalid("%s early close count must be at least 2, got %d", h, o.EarlyCloseCount(h))
		}
		if b := o.VelocityBlend(h); b < 0 || b > 1 {
			invalid("%s velocity blend must be within [0,1], got %g", h, b)
		}
	}
	if o.SplitMin < 0 || o.SplitMax > 127 || o.SplitMin > o.SplitMax {
		invalid("split range [%d,%d] is not within [0,127]", o.SplitMin, o.SplitMax)
	}
	if o.SplitInitial < o.SplitMin || o.SplitInitial > o.SplitMax {
		invalid("initial split %d outside [%d,%d]", o.SplitInitial, o.SplitMin, o.SplitMax)
	}
	if o.SplitAdaptInterval <= 0 {
		invalid("split adapt interval must be positive, got %s", o.SplitAdaptInterval)
	}
	if o.SplitShiftThreshold < 1 {
		invalid("split shift threshold must be at least 1, got %d", o.SplitShiftThreshold)
	}
	if o.LeftBassArpGap < 0 {
		invalid("bass/arpeggio gap must not be negative, got %s", o.LeftBassArpGap)
	}
	if o.ClusterThreshold < 3 || o.ClusterThreshold > 12 {
		invalid("cluster threshold must be within [3,12], got %d", o.ClusterThreshold)
	}
	return err
}

// InterpreterOption is a function that modifies InterpreterOptions.
type InterpreterOption func(*InterpreterOptions)

// WithChordWindows sets the base aggregation windows.
func WithChordWindows(left, right time.Duration) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.ChordWindowLeft = left
		o.ChordWindowRight = right
	}
}

// WithEarlyCloseCounts sets the note counts that close a dense window immediately.
func WithEarlyCloseCounts(left, right int) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.EarlyCloseCountLeft = left
		o.EarlyCloseCountRight = right
	}
}

// WithRollExtensions sets how far rolled chords may stretch a window.
func WithRollExtensions(left, right time.Duration) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.RollExtensionLeft = left
		o.RollExtensionRight = right
	}
}

// WithSplit sets the initial split point and its adaptation bounds.
func WithSplit(initial, min, max int) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.SplitInitial = initial
		o.SplitMin = min
		o.SplitMax = max
	}
}

// WithSplitAdaptation sets the estimator period and the shift threshold in semitones.
func WithSplitAdaptation(interval time.Duration, threshold int) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.SplitAdaptInterval = interval
		o.SplitShiftThreshold = threshold
	}
}

// WithLeftBassArpGap sets the window length above which a lone left-hand note is a bass line.
func WithLeftBassArpGap(gap time.Duration) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.LeftBassArpGap = gap
	}
}

// WithVelocityBlend sets the per-hand blend toward the window median.
func WithVelocityBlend(left, right float64) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.VelocityBlendLeft = left
		o.VelocityBlendRight = right
	}
}

// WithClusterThreshold sets the pitch-class count that marks a cluster.
func WithClusterThreshold(n int) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.ClusterThreshold = n
	}
}

// WithSustainedContext toggles folding pedal-held notes into closing windows.
func WithSustainedContext(include bool) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.IncludeSustainedInChord = include
	}
}

// WithInterpreterLogger sets the interpreter's logger.
func WithInterpreterLogger(l Logger) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.Logger = l
	}
}

// WithInterpreterLogLevel sets the interpreter's log level.
func WithInterpreterLogLevel(level LogLevel) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.LogLevel = level
	}
}

// WithChordNamer replaces the built-in chord dictionary.
func WithChordNamer(n ChordNamer) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.ChordNamer = n
	}
}

// WithClock sets the time source used for timestamps, window timers and the split ticker.
func WithClock(c clock.Clock) InterpreterOption {
	return func(o *InterpreterOptions) {
		o.Clock = c
	}
}
