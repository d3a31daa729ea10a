package contracts

import "fmt"

// DeviceInfo contains information about a MIDI input device.
type DeviceInfo struct {
	ID           int    // Index accepted by ClientMIDI.SelectDevice.
	Name         string // Device name.
	Manufacturer string // Device manufacturer, when the platform reports one.
	EntityName   string // Name of the entity to which the device belongs.
}

func (d DeviceInfo) String() string {
	if d.Manufacturer == "" {
		return fmt.Sprintf("[%d] %s", d.ID, d.Name)
	}
	return fmt.Sprintf("[%d] %s (%s)", d.ID, d.Name, d.Manufacturer)
}
