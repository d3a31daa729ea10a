package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.Info("window closed",
		log.Field().String("hand", "right"),
		log.Field().Int("notes", 3),
		log.Field().Ints("pitches", []int{60, 64, 67}),
		log.Field().Error("error", errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "window closed", entry.Message)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	ctx := entry.ContextMap()
	assert.Equal(t, "right", ctx["hand"])
	assert.EqualValues(t, 3, ctx["notes"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestZapLoggerHonoursLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))
	log.SetLevel(contracts.WarnLevel)

	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept")

	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, 2, logs.FilterMessage("kept").Len())
}

func TestNopLoggerDiscards(t *testing.T) {
	log := NewNopLogger()
	assert.NotPanics(t, func() {
		log.Error("nothing", log.Field().Bool("ok", true))
	})
}

func TestSetDestinationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	log := NewZapLogger()
	log.SetDestination(contracts.FileLog, path)
	log.Info("to file", log.Field().Int("split", 60))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
	assert.Contains(t, string(data), `"split":60`)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, contracts.DebugLevel, contracts.ParseLogLevel("debug"))
	assert.Equal(t, contracts.ErrorLevel, contracts.ParseLogLevel("error"))
	assert.Equal(t, contracts.InfoLevel, contracts.ParseLogLevel("loud"))
}
