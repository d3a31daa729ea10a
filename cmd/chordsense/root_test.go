package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/chordsense/internal/logger"
	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPrintChord(t *testing.T) {
	name := "Cmaj7"
	var buf bytes.Buffer
	printChord(&buf, contracts.ChordEvent{
		Hand:           contracts.RightHand,
		Role:           contracts.Chord,
		Name:           &name,
		Notes:          []int{60, 64, 67, 71},
		WindowDuration: 42 * time.Millisecond,
	})
	assert.Equal(t, "right chord    Cmaj7      [60 64 67 71] 42ms\n", buf.String())

	buf.Reset()
	printChord(&buf, contracts.ChordEvent{Hand: contracts.LeftHand, Role: contracts.BassLine, Notes: []int{36}})
	assert.Equal(t, "left  bassline -          [36] 0ms\n", buf.String())
}

func TestInterpreterOptionsWidenBounds(t *testing.T) {
	defer func(l, r time.Duration, s int) { leftWindow, rightWindow, splitPitch = l, r, s }(leftWindow, rightWindow, splitPitch)
	leftWindow, rightWindow, splitPitch = 300*time.Millisecond, 40*time.Millisecond, 48

	options := contracts.DefaultInterpreterOptions()
	for _, opt := range interpreterOptions(logger.NewNopLogger()) {
		opt(&options)
	}

	require.NoError(t, options.Validate())
	assert.Equal(t, 300*time.Millisecond, options.RollExtensionLeft)
	assert.Equal(t, 110*time.Millisecond, options.RollExtensionRight)
	assert.Equal(t, 48, options.SplitInitial)
	assert.Equal(t, 48, options.SplitMin)
	assert.Equal(t, 64, options.SplitMax)
}

func TestReplayCommand(t *testing.T) {
	s := smf.New()
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(0, midi.NoteOn(0, 64, 100))
	tr.Add(0, midi.NoteOn(0, 67, 100))
	tr.Add(480, midi.NoteOff(0, 60))
	tr.Add(0, midi.NoteOff(0, 64))
	tr.Add(0, midi.NoteOff(0, 67))
	tr.Close(0)
	require.NoError(t, s.Add(tr))

	path := filepath.Join(t.TempDir(), "triad.mid")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = s.WriteTo(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out := &syncBuffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"replay", path, "--log-level", "error"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "right chord    C "), lines[0])
	assert.Contains(t, lines[0], "[60 64 67]")
}

func TestReplayCommandMissingFile(t *testing.T) {
	rootCmd.SetOut(&syncBuffer{})
	rootCmd.SetErr(&syncBuffer{})
	rootCmd.SetArgs([]string{"replay", filepath.Join(t.TempDir(), "nope.mid"), "--log-level", "error"})
	defer rootCmd.SetArgs(nil)

	assert.Error(t, rootCmd.Execute())
}
