// Package midiportable captures MIDI input through the gomidi driver registry.
// A driver must be registered by the binary (for example by importing
// gitlab.com/gomidi/midi/v2/drivers/rtmididrv) before ports become visible.
package midiportable

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/chordsense/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.uber.org/multierr"
)

var (
	ErrNoMIDIDevices     = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
	ErrNoDeviceSelected  = errors.New("no MIDI device selected")
)

// ClientMid reads from one gomidi input port.
type ClientMid struct {
	logger          contracts.Logger
	midiEventFilter *contracts.MIDIEventFilter

	mu           sync.Mutex
	port         drivers.In
	stopListen   func()
	eventChannel chan contracts.MIDI
	stopOnce     sync.Once
}

// NewMIDIClient creates a client backed by whichever gomidi driver is registered.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("MIDI client created for gomidi drivers")
	return &ClientMid{
		logger:          options.Logger,
		midiEventFilter: options.MIDIEventFilter,
	}, nil
}

// ListDevices returns the input ports of the registered driver.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	ports := midi.GetInPorts()
	if len(ports) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(ports))
	for i, port := range ports {
		devices[i] = contracts.DeviceInfo{
			ID:         port.Number(),
			Name:       port.String(),
			EntityName: port.String(),
		}
	}
	return devices, nil
}

// SelectDevice opens the input port with the given number, closing any previous one.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	port, err := midi.InPort(deviceID)
	if err != nil {
		m.logger.Error(ErrInvalidMIDIDevice.Error(),
			m.logger.Field().Int("deviceID", deviceID),
			m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %d: %v", ErrInvalidMIDIDevice, deviceID, err)
	}

	if err := m.closePort(); err != nil {
		m.logger.Warn("Failed to close previous MIDI port", m.logger.Field().Error("error", err))
	}

	m.port = port
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", port.String()))

	if m.eventChannel != nil {
		return m.listen()
	}
	return nil
}

// StartCapture starts forwarding events from the selected port to eventChannel.
func (m *ClientMid) StartCapture(eventChannel chan contracts.MIDI) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	if m.port == nil {
		m.logger.Error("Cannot start capture", m.logger.Field().Error("error", ErrNoDeviceSelected))
		return
	}
	if m.stopListen != nil {
		m.logger.Warn("Capture already started")
		return
	}

	m.eventChannel = eventChannel
	if err := m.listen(); err != nil {
		m.logger.Error("Failed to start MIDI capture", m.logger.Field().Error("error", err))
		return
	}
	m.logger.Info("MIDI capture started")
}

func (m *ClientMid) listen() error {
	events := m.eventChannel
	stop, err := midi.ListenTo(m.port, func(msg midi.Message, _ int32) {
		event, ok := decode(msg, time.Now())
		if !ok || !m.midiEventFilter.Allows(event.Command) {
			return
		}
		select {
		case events <- event:
		default:
			m.logger.Warn("MIDI event channel is full; event discarded",
				m.logger.Field().Uint8("command", event.Command),
				m.logger.Field().Uint8("note", event.Note))
		}
	}, midi.HandleError(func(err error) {
		m.logger.Warn("MIDI listener error", m.logger.Field().Error("error", err))
	}))
	if err != nil {
		return err
	}
	m.stopListen = stop
	return nil
}

// closePort stops the listener and closes the port. Callers hold m.mu.
func (m *ClientMid) closePort() error {
	if m.stopListen != nil {
		m.stopListen()
		m.stopListen = nil
	}
	if m.port == nil {
		return nil
	}
	var err error
	if m.port.IsOpen() {
		err = m.port.Close()
	}
	m.port = nil
	return err
}

// Stop ends capture, closes the port and releases the driver.
func (m *ClientMid) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.logger.Info("Stopping MIDI capture")
		err = multierr.Append(m.closePort(), closeDriver())
		m.eventChannel = nil
	})
	return err
}

func closeDriver() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("closing MIDI driver: %v", r)
		}
	}()
	midi.CloseDriver()
	return nil
}

// decode converts a channel voice message into the capture event shape.
// Messages other than note-on, note-off and control change are rejected.
func decode(msg midi.Message, at time.Time) (contracts.MIDI, bool) {
	var channel, key, value uint8
	var command contracts.MIDICommand
	switch {
	case msg.GetNoteOn(&channel, &key, &value):
		command = contracts.NoteOn
	case msg.GetNoteOff(&channel, &key, &value):
		command = contracts.NoteOff
	case msg.GetControlChange(&channel, &key, &value):
		command = contracts.ControlChange
	default:
		return contracts.MIDI{}, false
	}
	return contracts.NewMIDI(at, byte(command)|channel, key, value), true
}
