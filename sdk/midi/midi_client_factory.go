package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/chordsense/internal/midi/mididarwin"
	"github.com/leandrodaf/chordsense/internal/midi/midiportable"
	"github.com/leandrodaf/chordsense/internal/midi/midiwindows"
	"github.com/leandrodaf/chordsense/sdk/contracts"
)

// ErrUnsupportedOS is returned when the operating system is not supported by the MIDI client.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// clientInitializers maps OS names to corresponding MIDI client initializers.
var clientInitializers = map[string]func(*contracts.ClientOptions) (contracts.ClientMIDI, error){
	"darwin":  mididarwin.NewMIDIClient,   // CoreMIDI.
	"windows": midiwindows.NewMIDIClient,  // winmm.
	"linux":   midiportable.NewMIDIClient, // gomidi driver registry.
}

// NewClient initializes a MIDI client based on the current operating system.
// It supports macOS (Darwin), Windows and Linux, returning ErrUnsupportedOS otherwise.
//
// opts *contracts.ClientOptions: Configuration options for the MIDI client.
//
// Returns:
//   - contracts.ClientMIDI: An instance of the MIDI client.
//   - error: An error if the operating system is unsupported or if initialization fails.
func NewClient(opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	return newClientFor(runtime.GOOS, opts)
}

func newClientFor(goos string, opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	if initializer, exists := clientInitializers[goos]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
}
