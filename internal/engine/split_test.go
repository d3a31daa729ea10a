package engine

import (
	"testing"
	"time"

	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(e *Engine, pitches ...int) {
	for _, p := range pitches {
		e.HandleNoteOn(p, 80)
		e.HandleNoteOff(p)
	}
}

func repeat(pitch, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = pitch
	}
	return out
}

func tick(e *Engine) {
	e.adaptSplit()
	e.flush()
}

func TestSplitNeedsEnoughSamples(t *testing.T) {
	e, _, rec := newTestEngine(t)
	feed(e, repeat(80, 7)...)
	tick(e)

	assert.Equal(t, 60, e.CurrentSplitPoint())
	assert.Empty(t, rec.splitEvents())
}

func TestSplitMovesAndClampsHigh(t *testing.T) {
	e, _, rec := newTestEngine(t)
	feed(e, repeat(80, 16)...)
	tick(e)

	assert.Equal(t, 64, e.CurrentSplitPoint())
	events := rec.splitEvents()
	require.Len(t, events, 1)
	assert.Equal(t, 64, events[0].SplitPitch)
}

func TestSplitMovesAndClampsLow(t *testing.T) {
	e, _, rec := newTestEngine(t)
	feed(e, repeat(40, 8)...)
	tick(e)

	assert.Equal(t, 52, e.CurrentSplitPoint())
	require.Len(t, rec.splitEvents(), 1)
}

func TestSplitIgnoresSmallDrift(t *testing.T) {
	e, _, rec := newTestEngine(t)
	feed(e, repeat(63, 16)...)
	tick(e)

	assert.Equal(t, 60, e.CurrentSplitPoint())
	assert.Empty(t, rec.splitEvents())
}

func TestSplitNoEventWhenClampedValueUnchanged(t *testing.T) {
	e, _, rec := newTestEngine(t)
	feed(e, repeat(90, 8)...)
	tick(e)
	feed(e, repeat(100, 8)...)
	tick(e)

	assert.Equal(t, 64, e.CurrentSplitPoint())
	assert.Len(t, rec.splitEvents(), 1)
}

func TestSplitUsesQuartilesNotExtremes(t *testing.T) {
	e, _, _ := newTestEngine(t, contracts.WithSplit(60, 40, 80))
	feed(e, append(repeat(21, 2), repeat(72, 14)...)...)
	tick(e)

	assert.Equal(t, 72, e.CurrentSplitPoint())
}

func TestSplitQuartileMidpoint(t *testing.T) {
	e, _, _ := newTestEngine(t, contracts.WithSplit(60, 30, 90))
	// sorted: 40 40 40 40 80 80 80 80; q1=s[2]=40, q3=s[6]=80
	feed(e, 40, 80, 40, 80, 40, 80, 40, 80)
	tick(e)

	assert.Equal(t, 60, e.CurrentSplitPoint(), "midpoint 60 equals current split")

	feed(e, repeat(30, 8)...)
	tick(e)
	// sorted: eight 30s, four 40s, four 80s; q1=s[4]=30, q3=s[12]=80
	assert.Equal(t, 55, e.CurrentSplitPoint())
}

func TestSplitSamplesAccumulateAcrossSkippedTicks(t *testing.T) {
	e, _, _ := newTestEngine(t)
	feed(e, repeat(80, 5)...)
	tick(e)
	assert.Equal(t, 60, e.CurrentSplitPoint())

	feed(e, repeat(80, 3)...)
	tick(e)
	assert.Equal(t, 64, e.CurrentSplitPoint())
}

func TestSplitHistoryIsTrimmed(t *testing.T) {
	e, _, _ := newTestEngine(t)
	feed(e, repeat(70, 200)...)
	tick(e)

	e.mu.Lock()
	defer e.mu.Unlock()
	assert.Len(t, e.history, historyLimit)
	assert.Equal(t, 0, e.fresh)
}

func TestSplitChangeRoutesLaterNotes(t *testing.T) {
	e, mock, rec := newTestEngine(t)
	feed(e, repeat(80, 8)...)
	tick(e)
	require.Equal(t, 64, e.CurrentSplitPoint())
	mock.Add(100 * time.Millisecond)
	require.Eventually(t, func() bool { return rec.chordCount() >= 1 }, waitFor, time.Millisecond)
	before := rec.chordCount()

	e.HandleNoteOn(62, 80)
	mock.Add(80 * time.Millisecond)
	events := waitChords(t, rec, before+1)
	assert.Equal(t, contracts.LeftHand, events[len(events)-1].Hand)
}

func TestSplitTickerDrivesAdaptation(t *testing.T) {
	e, mock, rec := newTestEngine(t)
	feed(e, repeat(80, 8)...)

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return e.CurrentSplitPoint() == 64 }, waitFor, time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.splitEvents()) == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, mock.Now(), rec.splitEvents()[0].Timestamp)
}
