package contracts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Hand identifies which hand a note was assigned to.
type Hand int

const (
	// LeftHand receives notes below the split point.
	LeftHand Hand = iota
	// RightHand receives notes at or above the split point.
	RightHand
)

func (h Hand) String() string {
	switch h {
	case LeftHand:
		return "left"
	case RightHand:
		return "right"
	default:
		return fmt.Sprintf("hand(%d)", int(h))
	}
}

// MarshalText encodes the hand as "left" or "right".
func (h Hand) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// Role classifies the harmonic content of a closed window.
type Role int

const (
	// Chord has three or more distinct pitch classes.
	Chord Role = iota
	// Dyad has exactly two distinct pitch classes.
	Dyad
	// BassLine is a single left-hand pitch class held over a slow window.
	BassLine
	// Arpeggio is a single pitch class that is not a bass tone.
	Arpeggio
	// Cluster has at least the configured cluster threshold of pitch classes.
	Cluster
)

func (r Role) String() string {
	switch r {
	case Chord:
		return "chord"
	case Dyad:
		return "dyad"
	case BassLine:
		return "bassline"
	case Arpeggio:
		return "arpeggio"
	case Cluster:
		return "cluster"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Named reports whether windows of this role are sent to the chord namer.
func (r Role) Named() bool {
	return r == Chord || r == Dyad || r == Cluster
}

// ChordEvent is emitted once per closed hand window. It must not be mutated by subscribers.
type ChordEvent struct {
	ID        uuid.UUID
	Hand      Hand
	Name      *string // nil when no name was found
	Inversion *int
	Notes     []int // ascending distinct pitches, including sustained context notes
	// Velocities holds one normalized value per note-on in the window, in arrival order.
	// It is not index-aligned with Notes: a pitch struck twice in one window appears
	// once in Notes and twice here, and context notes contribute no velocity.
	Velocities     []int
	Role           Role
	Root           *int
	PitchClasses   []int // ascending distinct pitch classes
	EmittedAt      time.Time
	WindowDuration time.Duration
}

// MarshalJSON renders the event with the window duration in milliseconds.
func (e ChordEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID               uuid.UUID `json:"id"`
		Hand             Hand      `json:"hand"`
		Name             *string   `json:"name"`
		Inversion        *int      `json:"inversion"`
		Notes            []int     `json:"notes"`
		Velocities       []int     `json:"velocities"`
		Role             Role      `json:"role"`
		Root             *int      `json:"root"`
		PitchClasses     []int     `json:"pitchClasses"`
		EmittedAt        time.Time `json:"emittedAt"`
		WindowDurationMs float64   `json:"windowDurationMs"`
	}{
		ID:               e.ID,
		Hand:             e.Hand,
		Name:             e.Name,
		Inversion:        e.Inversion,
		Notes:            e.Notes,
		Velocities:       e.Velocities,
		Role:             e.Role,
		Root:             e.Root,
		PitchClasses:     e.PitchClasses,
		EmittedAt:        e.EmittedAt,
		WindowDurationMs: float64(e.WindowDuration) / float64(time.Millisecond),
	})
}

// SplitChangeEvent announces a new split point.
type SplitChangeEvent struct {
	SplitPitch int       `json:"splitPitch"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChordNamer looks up chord names for an unordered set of pitch-class names such as "C", "E", "G".
// It may return no candidates.
type ChordNamer interface {
	DetectChordNames(pitchClassNames []string) ([]string, error)
}

// ChordNamerFunc adapts a plain function to ChordNamer.
type ChordNamerFunc func(pitchClassNames []string) ([]string, error)

// DetectChordNames calls f.
func (f ChordNamerFunc) DetectChordNames(pitchClassNames []string) ([]string, error) {
	return f(pitchClassNames)
}

// Interpreter turns raw keyboard input into hand-aware chord events.
type Interpreter interface {
	// SubscribeToChordEvents registers a callback; the returned function removes it and is idempotent.
	SubscribeToChordEvents(fn func(ChordEvent)) (unsubscribe func())
	// SubscribeToSplitChanges registers a callback for split point changes.
	SubscribeToSplitChanges(fn func(SplitChangeEvent)) (unsubscribe func())
	// CurrentSplitPoint returns the pitch separating left from right hand.
	CurrentSplitPoint() int
	// HandleNoteOn records a key press at the clock's current time.
	HandleNoteOn(pitch, velocity int)
	// HandleNoteOnAt records a key press with an explicit arrival time.
	HandleNoteOnAt(pitch, velocity int, at time.Time)
	// HandleNoteOff records a key release.
	HandleNoteOff(pitch int)
	// HandleControlChange records a controller change; only the sustain pedal has meaning.
	HandleControlChange(controller, value int)
	// Dispose stops all timers and subscribers. The interpreter ignores input afterwards.
	Dispose()
}
