package contracts

import "time"

// MIDI represents a raw channel message captured from an input device.
// For control change messages Note carries the controller number and Velocity its value.
type MIDI struct {
	Timestamp uint64    // Timestamp is the capture time in Unix nanoseconds.
	Received  time.Time // Received is the capture time with its monotonic reading; may be zero.
	Command   byte      // Command is the status byte; the low nibble may carry the channel.
	Note      byte      // Note is the MIDI note number (0-127), or the controller number.
	Velocity  byte      // Velocity is the note strength (0-127), or the controller value.
}

// NewMIDI stamps a message with at, keeping both the wall-clock and monotonic readings.
func NewMIDI(at time.Time, command, note, velocity byte) MIDI {
	return MIDI{
		Timestamp: uint64(at.UnixNano()),
		Received:  at,
		Command:   command,
		Note:      note,
		Velocity:  velocity,
	}
}

// Kind returns the command with the channel nibble stripped.
func (m MIDI) Kind() MIDICommand {
	return MIDICommand(m.Command & 0xF0)
}

// Channel returns the zero-based MIDI channel.
func (m MIDI) Channel() uint8 {
	return m.Command & 0x0F
}

// IsNoteOn reports whether the message starts a note. A note-on with velocity 0 is a note-off.
func (m MIDI) IsNoteOn() bool {
	return m.Kind() == NoteOn && m.Velocity > 0
}

// IsNoteOff reports whether the message ends a note.
func (m MIDI) IsNoteOff() bool {
	return m.Kind() == NoteOff || (m.Kind() == NoteOn && m.Velocity == 0)
}

// IsControlChange reports whether the message is a controller change.
func (m MIDI) IsControlChange() bool {
	return m.Kind() == ControlChange
}

// Time returns Received when set, so elapsed-time arithmetic stays monotonic.
// Otherwise it converts Timestamp; a zero Timestamp yields the zero time.
func (m MIDI) Time() time.Time {
	if !m.Received.IsZero() {
		return m.Received
	}
	if m.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(m.Timestamp))
}

// ClientMIDI defines an interface for MIDI client operations.
type ClientMIDI interface {
	Stop() error                         // Stops the MIDI client and releases resources.
	ListDevices() ([]DeviceInfo, error)  // Lists all available MIDI devices.
	SelectDevice(deviceID int) error     // Selects a MIDI device by its ID for communication.
	StartCapture(eventChannel chan MIDI) // Starts capturing MIDI events and sends them to the specified channel.
}
