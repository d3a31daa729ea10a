// Package engine interprets a live stream of note and pedal events as
// hand-aware chord events.
//
// All state is guarded by one mutex. Entry points, window timers and the
// split ticker each take the lock, mutate, and queue the events they
// produce; queued events are delivered after the lock is released, in the
// order they were produced, by whichever goroutine gets to drain first.
// Subscribers may therefore call back into the engine.
package engine

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/leandrodaf/chordsense/internal/logger"
	"github.com/leandrodaf/chordsense/internal/theory"
	"github.com/leandrodaf/chordsense/sdk/contracts"
)

const (
	maxPitch    = 127
	maxVelocity = 127
)

type activeNote struct {
	pitch     int
	velocity  int
	at        time.Time
	sustained bool
	hand      contracts.Hand
}

// Engine implements contracts.Interpreter.
type Engine struct {
	opts   contracts.InterpreterOptions
	clock  clock.Clock
	logger contracts.Logger
	namer  contracts.ChordNamer

	mu        sync.Mutex
	disposed  bool
	split     int
	pedalDown bool
	active    map[int]*activeNote
	history   []int
	fresh     int // pitches recorded since the history was last trimmed
	buffers   [2]*handBuffer
	ticker    *clock.Ticker
	done      chan struct{}
	pending   []func()

	deliverMu sync.Mutex

	chords *source[contracts.ChordEvent]
	splits *source[contracts.SplitChangeEvent]
}

var _ contracts.Interpreter = (*Engine)(nil)

// New validates opts and starts the split estimator. Nil collaborators are replaced with
// the real clock, a no-op logger and the built-in chord dictionary.
func New(opts contracts.InterpreterOptions) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.ChordNamer == nil {
		opts.ChordNamer = theory.NewDictionary()
	}

	e := &Engine{
		opts:   opts,
		clock:  opts.Clock,
		logger: opts.Logger,
		namer:  opts.ChordNamer,
		split:  opts.SplitInitial,
		active: make(map[int]*activeNote),
		done:   make(chan struct{}),
		chords: newSource[contracts.ChordEvent]("chords", opts.Logger),
		splits: newSource[contracts.SplitChangeEvent]("splits", opts.Logger),
	}
	e.buffers[contracts.LeftHand] = &handBuffer{hand: contracts.LeftHand}
	e.buffers[contracts.RightHand] = &handBuffer{hand: contracts.RightHand}

	e.ticker = e.clock.Ticker(opts.SplitAdaptInterval)
	go e.run(e.ticker, e.done)

	e.logger.Debug("interpreter started",
		e.logger.Field().Int("split", e.split),
		e.logger.Field().Duration("leftWindow", opts.ChordWindowLeft),
		e.logger.Field().Duration("rightWindow", opts.ChordWindowRight))
	return e, nil
}

// SubscribeToChordEvents implements contracts.Interpreter.
func (e *Engine) SubscribeToChordEvents(fn func(contracts.ChordEvent)) func() {
	return e.chords.subscribe(fn)
}

// SubscribeToSplitChanges implements contracts.Interpreter.
func (e *Engine) SubscribeToSplitChanges(fn func(contracts.SplitChangeEvent)) func() {
	return e.splits.subscribe(fn)
}

// CurrentSplitPoint implements contracts.Interpreter.
func (e *Engine) CurrentSplitPoint() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.split
}

// HandleNoteOn implements contracts.Interpreter.
func (e *Engine) HandleNoteOn(pitch, velocity int) {
	e.HandleNoteOnAt(pitch, velocity, time.Time{})
}

// HandleNoteOnAt implements contracts.Interpreter. A zero at means "now"; a zero velocity
// is a note-off.
func (e *Engine) HandleNoteOnAt(pitch, velocity int, at time.Time) {
	if !validPitch(pitch) {
		e.logger.Debug("note on ignored: pitch out of range", e.logger.Field().Int("pitch", pitch))
		return
	}
	if velocity <= 0 {
		e.HandleNoteOff(pitch)
		return
	}
	velocity = theory.Clamp(velocity, 1, maxVelocity)

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	if at.IsZero() {
		at = e.clock.Now()
	}
	hand := e.handFor(pitch)
	e.active[pitch] = &activeNote{pitch: pitch, velocity: velocity, at: at, hand: hand}
	e.history = append(e.history, pitch)
	e.fresh++
	e.bufferNote(e.buffers[hand], bufferedNote{pitch: pitch, velocity: velocity, at: at})
	e.mu.Unlock()

	e.flush()
}

// HandleNoteOff implements contracts.Interpreter. Unknown pitches are ignored.
func (e *Engine) HandleNoteOff(pitch int) {
	if !validPitch(pitch) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	n, ok := e.active[pitch]
	if !ok {
		return
	}
	if e.pedalDown {
		n.sustained = true
		return
	}
	delete(e.active, pitch)
}

// HandleControlChange implements contracts.Interpreter. Only the sustain pedal is interpreted.
func (e *Engine) HandleControlChange(controller, value int) {
	if controller != contracts.SustainPedal {
		e.logger.Debug("control change ignored", e.logger.Field().Int("controller", controller))
		return
	}
	down := theory.Clamp(value, 0, maxVelocity) >= 64

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed || down == e.pedalDown {
		return
	}
	e.pedalDown = down
	if down {
		return
	}
	for pitch, n := range e.active {
		if n.sustained {
			delete(e.active, pitch)
		}
	}
}

// Dispose implements contracts.Interpreter. It is safe to call more than once and from
// inside a subscriber.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	for _, b := range e.buffers {
		b.reset()
	}
	e.ticker.Stop()
	close(e.done)
	e.pending = nil
	e.active = make(map[int]*activeNote)
	e.mu.Unlock()

	e.chords.close()
	e.splits.close()
	e.logger.Info("interpreter disposed")
}

func (e *Engine) run(ticker *clock.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			e.adaptSplit()
			e.flush()
		}
	}
}

// handFor must be called with e.mu held.
func (e *Engine) handFor(pitch int) contracts.Hand {
	if pitch < e.split {
		return contracts.LeftHand
	}
	return contracts.RightHand
}

// enqueue must be called with e.mu held.
func (e *Engine) enqueue(fn func()) {
	e.pending = append(e.pending, fn)
}

// flush delivers queued events. Only one goroutine drains at a time; a caller that finds
// the drain busy leaves its events to the active drainer, which re-checks the queue
// after releasing deliverMu.
func (e *Engine) flush() {
	for {
		if !e.deliverMu.TryLock() {
			return
		}
		for {
			e.mu.Lock()
			if e.disposed || len(e.pending) == 0 {
				e.pending = nil
				e.mu.Unlock()
				break
			}
			next := e.pending[0]
			e.pending = e.pending[1:]
			e.mu.Unlock()
			next()
		}
		e.deliverMu.Unlock()

		e.mu.Lock()
		more := !e.disposed && len(e.pending) > 0
		e.mu.Unlock()
		if !more {
			return
		}
	}
}

func validPitch(pitch int) bool {
	return pitch >= 0 && pitch <= maxPitch
}
