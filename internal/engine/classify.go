package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/leandrodaf/chordsense/internal/theory"
	"github.com/leandrodaf/chordsense/sdk/contracts"
)

// window is the frozen content of a closed hand buffer.
type window struct {
	hand      contracts.Hand
	notes     []bufferedNote // arrival order
	sustained []int          // pedal-held context pitches
	closedAt  time.Time
	duration  time.Duration
}

// classify turns a closed window into a chord event. Called from the delivery queue,
// outside e.mu.
func (e *Engine) classify(w window) contracts.ChordEvent {
	pitches := notePitches(w)
	pcs := theory.DistinctPitchClasses(pitches)

	raw := make([]int, len(w.notes))
	for i, n := range w.notes {
		raw[i] = n.velocity
	}

	ev := contracts.ChordEvent{
		ID:             uuid.New(),
		Hand:           w.hand,
		Notes:          pitches,
		Velocities:     normalizeVelocities(raw, e.opts.VelocityBlend(w.hand)),
		Role:           roleFor(w.hand, len(pcs), w.duration, e.opts),
		PitchClasses:   pcs,
		EmittedAt:      w.closedAt,
		WindowDuration: w.duration,
	}

	if ev.Role.Named() {
		if name := e.lookupName(pcs); name != nil {
			lowest := pitches[0]
			inversion := inversionOf(lowest, pcs)
			ev.Name = name
			ev.Inversion = &inversion
			ev.Root = &lowest
		}
	}
	return ev
}

// notePitches returns the distinct window and context pitches in ascending order.
func notePitches(w window) []int {
	seen := make(map[int]bool, len(w.notes)+len(w.sustained))
	out := make([]int, 0, len(w.notes)+len(w.sustained))
	for _, n := range w.notes {
		if !seen[n.pitch] {
			seen[n.pitch] = true
			out = append(out, n.pitch)
		}
	}
	for _, p := range w.sustained {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// normalizeVelocities pulls each velocity toward the window median by blend.
func normalizeVelocities(raw []int, blend float64) []int {
	median := theory.Median(raw)
	out := make([]int, len(raw))
	for i, v := range raw {
		out[i] = theory.Round(median + (float64(v)-median)*(1-blend))
	}
	return out
}

func roleFor(hand contracts.Hand, pitchClasses int, duration time.Duration, opts contracts.InterpreterOptions) contracts.Role {
	switch {
	case pitchClasses >= opts.ClusterThreshold:
		return contracts.Cluster
	case pitchClasses >= 3:
		return contracts.Chord
	case pitchClasses == 2:
		return contracts.Dyad
	case hand == contracts.LeftHand && duration > opts.LeftBassArpGap:
		return contracts.BassLine
	default:
		return contracts.Arpeggio
	}
}

// inversionOf is the index of the lowest note's pitch class in the sorted pitch classes.
// It approximates the inversion without reference to the matched chord's intervals.
func inversionOf(lowest int, pcs []int) int {
	pc := theory.PitchClass(lowest)
	for i, p := range pcs {
		if p == pc {
			return i
		}
	}
	return 0
}

// lookupName asks the namer for candidates and keeps the shortest. Errors and panics
// from the namer yield nil.
func (e *Engine) lookupName(pcs []int) (name *string) {
	names := make([]string, len(pcs))
	for i, pc := range pcs {
		names[i] = theory.PitchClassName(pc)
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("chord namer panicked",
				e.logger.Field().Ints("pitchClasses", pcs),
				e.logger.Field().String("panic", fmt.Sprint(r)))
			name = nil
		}
	}()

	candidates, err := e.namer.DetectChordNames(names)
	if err != nil {
		e.logger.Error("chord namer failed",
			e.logger.Field().Ints("pitchClasses", pcs),
			e.logger.Field().Error("error", err))
		return nil
	}

	var best string
	for _, c := range candidates {
		if c != "" && (best == "" || len(c) < len(best)) {
			best = c
		}
	}
	if best == "" {
		return nil
	}
	return &best
}
