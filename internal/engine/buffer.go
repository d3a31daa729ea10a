package engine

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/leandrodaf/chordsense/sdk/contracts"
)

// minRollWait is the shortest close delay a roll extension reschedules.
const minRollWait = 10 * time.Millisecond

type bufferedNote struct {
	pitch    int
	velocity int
	at       time.Time
}

// handBuffer collects one hand's near-simultaneous notes. gen identifies the timer that
// may close the current window; a callback carrying any other generation is stale.
type handBuffer struct {
	hand  contracts.Hand
	notes []bufferedNote
	start time.Time
	open  bool
	timer *clock.Timer
	gen   uint64
}

func (b *handBuffer) stopTimer() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
}

func (b *handBuffer) reset() {
	b.stopTimer()
	b.notes = nil
	b.start = time.Time{}
	b.open = false
}

// bufferNote must be called with e.mu held.
func (e *Engine) bufferNote(b *handBuffer, n bufferedNote) {
	window := e.opts.Window(b.hand)
	if !b.open {
		b.open = true
		b.start = n.at
		b.notes = []bufferedNote{n}
		e.scheduleClose(b, window)
		return
	}

	b.notes = append(b.notes, n)
	elapsed := n.at.Sub(b.start)

	if len(b.notes) >= e.opts.EarlyCloseCount(b.hand) && elapsed < window*6/10 {
		e.closeBuffer(b, "early")
		return
	}

	roll := e.opts.RollExtension(b.hand)
	if elapsed > window && elapsed <= roll {
		wait := roll - elapsed
		if wait < minRollWait {
			wait = minRollWait
		}
		e.scheduleClose(b, wait)
	}
}

// scheduleClose replaces the buffer's pending timer. Must be called with e.mu held.
func (e *Engine) scheduleClose(b *handBuffer, after time.Duration) {
	b.stopTimer()
	gen := b.gen
	hand := b.hand
	b.timer = e.clock.AfterFunc(after, func() { e.onWindowTimer(hand, gen) })
}

func (e *Engine) onWindowTimer(hand contracts.Hand, gen uint64) {
	e.mu.Lock()
	b := e.buffers[hand]
	if e.disposed || b.gen != gen {
		e.mu.Unlock()
		return
	}
	b.timer = nil
	e.closeBuffer(b, "timer")
	e.mu.Unlock()

	e.flush()
}

// closeBuffer snapshots the window, resets the buffer and queues the chord event.
// Must be called with e.mu held.
func (e *Engine) closeBuffer(b *handBuffer, reason string) {
	if len(b.notes) == 0 {
		b.reset()
		return
	}

	now := e.clock.Now()
	duration := now.Sub(b.start)
	if duration < 0 {
		duration = 0
	}
	w := window{
		hand:     b.hand,
		notes:    b.notes,
		closedAt: now,
		duration: duration,
	}
	if e.opts.IncludeSustainedInChord {
		w.sustained = e.sustainedContext(b.hand, b.notes)
	}
	b.reset()

	e.logger.Debug("window closed",
		e.logger.Field().String("hand", w.hand.String()),
		e.logger.Field().String("reason", reason),
		e.logger.Field().Int("notes", len(w.notes)),
		e.logger.Field().Duration("duration", w.duration))

	e.enqueue(func() {
		e.chords.publish(e.classify(w))
	})
}

// sustainedContext returns pedal-held pitches of hand that are not part of notes.
// Must be called with e.mu held.
func (e *Engine) sustainedContext(hand contracts.Hand, notes []bufferedNote) []int {
	var out []int
	for pitch, n := range e.active {
		if !n.sustained || n.hand != hand || containsPitch(notes, pitch) {
			continue
		}
		out = append(out, pitch)
	}
	return out
}

func containsPitch(notes []bufferedNote, pitch int) bool {
	for _, n := range notes {
		if n.pitch == pitch {
			return true
		}
	}
	return false
}
