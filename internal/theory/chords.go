package theory

import (
	"fmt"
)

// chordTemplate is a set of intervals above a root, stored as a 12-bit mask.
type chordTemplate struct {
	suffix string
	mask   uint16
}

func intervals(steps ...int) uint16 {
	var m uint16
	for _, s := range steps {
		m |= 1 << uint(PitchClass(s))
	}
	return m
}

// Order matters: for identical masks the first suffix wins.
var chordTemplates = []chordTemplate{
	{"5", intervals(0, 7)},
	{"", intervals(0, 4, 7)},
	{"m", intervals(0, 3, 7)},
	{"dim", intervals(0, 3, 6)},
	{"aug", intervals(0, 4, 8)},
	{"sus2", intervals(0, 2, 7)},
	{"sus4", intervals(0, 5, 7)},
	{"6", intervals(0, 4, 7, 9)},
	{"m6", intervals(0, 3, 7, 9)},
	{"7", intervals(0, 4, 7, 10)},
	{"maj7", intervals(0, 4, 7, 11)},
	{"m7", intervals(0, 3, 7, 10)},
	{"mMaj7", intervals(0, 3, 7, 11)},
	{"m7b5", intervals(0, 3, 6, 10)},
	{"dim7", intervals(0, 3, 6, 9)},
	{"7sus4", intervals(0, 5, 7, 10)},
	{"add9", intervals(0, 2, 4, 7)},
	{"madd9", intervals(0, 2, 3, 7)},
	{"9", intervals(0, 2, 4, 7, 10)},
	{"maj9", intervals(0, 2, 4, 7, 11)},
	{"m9", intervals(0, 2, 3, 7, 10)},
	{"6/9", intervals(0, 2, 4, 7, 9)},
	{"11", intervals(0, 2, 4, 5, 7, 10)},
	{"m11", intervals(0, 2, 3, 5, 7, 10)},
	{"13", intervals(0, 2, 4, 7, 9, 10)},
}

var templateByMask = func() map[uint16]string {
	m := make(map[uint16]string, len(chordTemplates))
	for _, t := range chordTemplates {
		if _, ok := m[t.mask]; !ok {
			m[t.mask] = t.suffix
		}
	}
	return m
}()

// Dictionary is the built-in chord namer. It tries every pitch class of the input as a root
// and returns one name per root whose interval set matches a known chord exactly.
type Dictionary struct{}

// NewDictionary returns the built-in chord namer.
func NewDictionary() Dictionary {
	return Dictionary{}
}

// DetectChordNames implements contracts.ChordNamer.
func (Dictionary) DetectChordNames(pitchClassNames []string) ([]string, error) {
	pcs := make([]int, 0, len(pitchClassNames))
	var set uint16
	for _, name := range pitchClassNames {
		pc, ok := PitchClassFromName(name)
		if !ok {
			return nil, fmt.Errorf("unknown pitch class name %q", name)
		}
		if set&(1<<uint(pc)) == 0 {
			pcs = append(pcs, pc)
		}
		set |= 1 << uint(pc)
	}

	var names []string
	for _, root := range pcs {
		if suffix, ok := templateByMask[rotate(set, root)]; ok {
			names = append(names, PitchClassName(root)+suffix)
		}
	}
	return names, nil
}

// rotate re-expresses a pitch-class mask as intervals above root.
func rotate(set uint16, root int) uint16 {
	var out uint16
	for pc := 0; pc < 12; pc++ {
		if set&(1<<uint(pc)) != 0 {
			out |= 1 << uint(PitchClass(pc-root))
		}
	}
	return out
}
