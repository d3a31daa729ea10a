//go:build !darwin

package mididarwin

import (
	"testing"

	"github.com/leandrodaf/chordsense/internal/logger"
	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDummyClientReportsUnavailable(t *testing.T) {
	client, err := NewMIDIClient(&contracts.ClientOptions{Logger: logger.NewNopLogger()})
	require.NoError(t, err)

	_, err = client.ListDevices()
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, client.SelectDevice(0), ErrUnavailable)
	assert.NoError(t, client.Stop())
}
