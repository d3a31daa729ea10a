package engine

import (
	"testing"
	"time"

	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/stretchr/testify/assert"
)

func TestRoleBoundaries(t *testing.T) {
	opts := contracts.DefaultInterpreterOptions()
	gap := opts.LeftBassArpGap

	cases := []struct {
		name     string
		hand     contracts.Hand
		pcs      int
		duration time.Duration
		want     contracts.Role
	}{
		{"cluster at threshold", contracts.RightHand, 7, 0, contracts.Cluster},
		{"chord below cluster", contracts.RightHand, 6, 0, contracts.Chord},
		{"triad", contracts.LeftHand, 3, 0, contracts.Chord},
		{"two classes", contracts.LeftHand, 2, time.Second, contracts.Dyad},
		{"left slow single", contracts.LeftHand, 1, gap + time.Millisecond, contracts.BassLine},
		{"left single at gap", contracts.LeftHand, 1, gap, contracts.Arpeggio},
		{"right slow single", contracts.RightHand, 1, time.Second, contracts.Arpeggio},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, roleFor(c.hand, c.pcs, c.duration, opts))
		})
	}
}

func TestNormalizeVelocities(t *testing.T) {
	assert.Equal(t, []int{100, 60}, normalizeVelocities([]int{100, 60}, 0))
	assert.Equal(t, []int{80, 80}, normalizeVelocities([]int{100, 60}, 1))
	assert.Equal(t, []int{95, 65}, normalizeVelocities([]int{100, 60}, 0.25))
	assert.Equal(t, []int{}, normalizeVelocities([]int{}, 0.5))
}

func TestInversionOf(t *testing.T) {
	pcs := []int{0, 4, 7}
	assert.Equal(t, 0, inversionOf(48, pcs))
	assert.Equal(t, 1, inversionOf(52, pcs))
	assert.Equal(t, 2, inversionOf(55, pcs))
}

func TestNotePitchesMergesContext(t *testing.T) {
	w := window{
		notes:     []bufferedNote{{pitch: 67}, {pitch: 60}, {pitch: 67}},
		sustained: []int{48, 60},
	}
	assert.Equal(t, []int{48, 60, 67}, notePitches(w))
}
