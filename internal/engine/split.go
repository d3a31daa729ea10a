package engine

import (
	"sort"

	"github.com/leandrodaf/chordsense/internal/theory"
	"github.com/leandrodaf/chordsense/sdk/contracts"
)

const (
	minSplitSamples = 8
	historyLimit    = 128
)

// adaptSplit moves the split point to the midpoint of the history's first and third
// quartiles when that midpoint is at least SplitShiftThreshold away. Must not hold e.mu.
func (e *Engine) adaptSplit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed || e.fresh < minSplitSamples {
		return
	}

	sorted := make([]int, len(e.history))
	copy(sorted, e.history)
	sort.Ints(sorted)
	n := len(sorted)
	q1 := sorted[n/4]
	q3 := sorted[n*3/4]
	candidate := theory.Round(float64(q1+q3) / 2)

	if theory.Abs(candidate-e.split) >= e.opts.SplitShiftThreshold {
		clamped := theory.Clamp(candidate, e.opts.SplitMin, e.opts.SplitMax)
		if clamped != e.split {
			e.logger.Info("split point moved",
				e.logger.Field().Int("from", e.split),
				e.logger.Field().Int("to", clamped),
				e.logger.Field().Int("candidate", candidate))
			e.split = clamped
			ev := contracts.SplitChangeEvent{SplitPitch: clamped, Timestamp: e.clock.Now()}
			e.enqueue(func() { e.splits.publish(ev) })
		}
	}

	if len(e.history) > historyLimit {
		e.history = append([]int(nil), e.history[len(e.history)-historyLimit:]...)
	}
	e.fresh = 0
}
