// Package midi opens the platform MIDI input used to feed the chord interpreter.
package midi

import (
	"github.com/leandrodaf/chordsense/sdk/contracts"
	"go.uber.org/multierr"
)

// NewMIDIClient creates a new MIDI capture client with the specified options.
// It applies default options and initializes the client for the current OS.
//
// opts ...contracts.Option: A variadic list of option functions to customize the client configuration.
//
// Returns:
//   - contracts.ClientMIDI: An instance of the MIDI client.
//   - error: An error, if any occurred during the creation of the client.
func NewMIDIClient(opts ...contracts.Option) (contracts.ClientMIDI, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(&options)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// OpenDevice creates a client, connects to deviceID and starts capturing into a
// channel with room for buffer events. The client must be stopped by the caller.
//
// Returns:
//   - contracts.ClientMIDI: the capturing client.
//   - <-chan contracts.MIDI: captured events; never closed by the client.
//   - error: creation or device selection failure. The client is stopped on error.
func OpenDevice(deviceID, buffer int, opts ...contracts.Option) (contracts.ClientMIDI, <-chan contracts.MIDI, error) {
	client, err := NewMIDIClient(opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := client.SelectDevice(deviceID); err != nil {
		return nil, nil, multierr.Append(err, client.Stop())
	}

	events := make(chan contracts.MIDI, buffer)
	client.StartCapture(events)
	return client, events, nil
}
