package replay

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// writeSMF builds a one-track file at 120 bpm with 960 ticks per quarter,
// so 480 ticks are 250ms.
func writeSMF(t *testing.T) []byte {
	t.Helper()
	s := smf.New()
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(0, midi.NoteOn(0, 64, 90))
	tr.Add(0, midi.ProgramChange(0, 3))
	tr.Add(480, midi.ControlChange(0, 64, 127))
	tr.Add(0, midi.NoteOff(0, 60))
	tr.Add(480, midi.NoteOn(1, 48, 0))
	tr.Close(0)
	require.NoError(t, s.Add(tr))

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	tl, err := Parse(bytes.NewReader(writeSMF(t)))
	require.NoError(t, err)

	assert.Equal(t, Timeline{
		{Offset: 0, Kind: NoteOn, Data1: 60, Data2: 100},
		{Offset: 0, Kind: NoteOn, Data1: 64, Data2: 90},
		{Offset: 250 * time.Millisecond, Kind: NoteOff, Data1: 60},
		{Offset: 250 * time.Millisecond, Kind: ControlChange, Data1: 64, Data2: 127},
		{Offset: 500 * time.Millisecond, Kind: NoteOff, Data1: 48},
	}, tl)
	assert.Equal(t, 500*time.Millisecond, tl.Duration())
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("not a midi file"))
	assert.ErrorIs(t, err, ErrParseFile)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.mid")
	require.NoError(t, os.WriteFile(path, writeSMF(t), 0o600))

	tl, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, tl, 5)

	_, err = Load(filepath.Join(t.TempDir(), "missing.mid"))
	assert.ErrorIs(t, err, ErrReadFile)
}

type recordingTarget struct {
	mu    sync.Mutex
	calls []string
	stamp []time.Time
}

func (r *recordingTarget) HandleNoteOnAt(pitch, velocity int, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "on")
	r.stamp = append(r.stamp, at)
}

func (r *recordingTarget) HandleNoteOff(pitch int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "off")
}

func (r *recordingTarget) HandleControlChange(controller, value int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "cc")
}

func TestPlayDeliversInOrder(t *testing.T) {
	tl := Timeline{
		{Offset: 0, Kind: NoteOn, Data1: 60, Data2: 100},
		{Offset: 5 * time.Millisecond, Kind: ControlChange, Data1: 64, Data2: 127},
		{Offset: 10 * time.Millisecond, Kind: NoteOn, Data1: 64, Data2: 80},
		{Offset: 10 * time.Millisecond, Kind: NoteOff, Data1: 60},
	}
	target := &recordingTarget{}
	begin := time.Now()

	require.NoError(t, Play(context.Background(), clock.New(), tl, target))

	assert.GreaterOrEqual(t, time.Since(begin), 10*time.Millisecond)
	assert.Equal(t, []string{"on", "cc", "on", "off"}, target.calls)
	require.Len(t, target.stamp, 2)
	assert.Equal(t, 10*time.Millisecond, target.stamp[1].Sub(target.stamp[0]))
}

func TestPlayStopsOnCancel(t *testing.T) {
	mock := clock.NewMock()
	tl := Timeline{
		{Offset: 0, Kind: NoteOn, Data1: 60, Data2: 100},
		{Offset: time.Hour, Kind: NoteOff, Data1: 60},
	}
	target := &recordingTarget{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Play(ctx, mock, tl, target) }()

	require.Eventually(t, func() bool {
		target.mu.Lock()
		defer target.mu.Unlock()
		return len(target.calls) == 1
	}, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("play did not stop")
	}
	assert.Equal(t, []string{"on"}, target.calls)
}
