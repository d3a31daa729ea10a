package interpreter

import (
	"context"

	"github.com/leandrodaf/chordsense/sdk/contracts"
)

// Dispatch routes one captured message to the interpreter. Messages other than
// note-on, note-off and control change are ignored.
func Dispatch(in contracts.Interpreter, event contracts.MIDI) {
	switch {
	case event.IsNoteOn():
		in.HandleNoteOnAt(int(event.Note), int(event.Velocity), event.Time())
	case event.IsNoteOff():
		in.HandleNoteOff(int(event.Note))
	case event.IsControlChange():
		in.HandleControlChange(int(event.Note), int(event.Velocity))
	}
}

// Pump dispatches events until the channel is closed or ctx is done.
// It returns ctx.Err() when cancelled and nil when the channel is closed.
func Pump(ctx context.Context, events <-chan contracts.MIDI, in contracts.Interpreter) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			Dispatch(in, event)
		}
	}
}
