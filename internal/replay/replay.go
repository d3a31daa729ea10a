// Package replay performs Standard MIDI Files through a chord interpreter in real time.
package replay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

var (
	ErrReadFile  = errors.New("error reading midi file")
	ErrParseFile = errors.New("error parsing midi file")
)

// Kind is the message kind of a timeline event.
type Kind int

const (
	NoteOn Kind = iota
	NoteOff
	ControlChange
)

// Event is one channel message at an offset from the start of the file.
// For notes Data1 is the pitch and Data2 the velocity; for control changes
// they are the controller number and value.
type Event struct {
	Offset time.Duration
	Kind   Kind
	Data1  int
	Data2  int
}

// Timeline is a performance ordered by offset. At equal offsets note-offs come first.
type Timeline []Event

// Duration is the offset of the last event.
func (t Timeline) Duration() time.Duration {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].Offset
}

// Target receives replayed messages. contracts.Interpreter satisfies it.
type Target interface {
	HandleNoteOnAt(pitch, velocity int, at time.Time)
	HandleNoteOff(pitch int)
	HandleControlChange(controller, value int)
}

// Load reads and parses the file at path.
func Load(path string) (Timeline, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFile, err)
	}
	return Parse(bytes.NewReader(dat))
}

// Parse decodes an SMF and merges its tracks into one timeline.
func Parse(r io.Reader) (tl Timeline, err error) {
	// smf can panic on malformed input.
	defer func() {
		if p := recover(); p != nil {
			tl, err = nil, fmt.Errorf("%w: %v", ErrParseFile, p)
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFile, err)
	}

	for _, track := range s.Tracks {
		var absTicks int64
		for _, ev := range track {
			absTicks += int64(ev.Delta)
			event, ok := decode(midi.Message(ev.Message))
			if !ok {
				continue
			}
			event.Offset = time.Duration(s.TimeAt(absTicks)) * time.Microsecond
			tl = append(tl, event)
		}
	}

	sort.SliceStable(tl, func(i, j int) bool {
		if tl[i].Offset != tl[j].Offset {
			return tl[i].Offset < tl[j].Offset
		}
		return tl[i].Kind == NoteOff && tl[j].Kind != NoteOff
	})
	return tl, nil
}

func decode(msg midi.Message) (Event, bool) {
	var channel, key, value uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &value):
		return Event{Kind: NoteOn, Data1: int(key), Data2: int(value)}, true
	case msg.GetNoteEnd(&channel, &key):
		return Event{Kind: NoteOff, Data1: int(key)}, true
	case msg.GetControlChange(&channel, &key, &value):
		return Event{Kind: ControlChange, Data1: int(key), Data2: int(value)}, true
	}
	return Event{}, false
}

// Play sends every event to target at its offset from the moment Play is called.
// Note-ons carry their scheduled time. It returns ctx.Err() if cancelled.
func Play(ctx context.Context, clk clock.Clock, tl Timeline, target Target) error {
	start := clk.Now()
	for _, ev := range tl {
		at := start.Add(ev.Offset)
		if wait := at.Sub(clk.Now()); wait > 0 {
			timer := clk.Timer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		switch ev.Kind {
		case NoteOn:
			target.HandleNoteOnAt(ev.Data1, ev.Data2, at)
		case NoteOff:
			target.HandleNoteOff(ev.Data1)
		case ControlChange:
			target.HandleControlChange(ev.Data1, ev.Data2)
		}
	}
	return nil
}
