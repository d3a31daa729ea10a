package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/leandrodaf/chordsense/sdk/contracts"
)

type subscriber[T any] struct {
	id uuid.UUID
	fn func(T)
}

// source is an ordered set of callbacks keyed by subscription handle.
type source[T any] struct {
	name   string
	logger contracts.Logger

	mu     sync.Mutex
	subs   []subscriber[T]
	closed bool
}

func newSource[T any](name string, logger contracts.Logger) *source[T] {
	return &source[T]{name: name, logger: logger}
}

// subscribe adds fn and returns an idempotent unsubscribe function.
// Subscribing to a closed source returns a no-op unsubscribe.
func (s *source[T]) subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	id := uuid.New()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *source[T]) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// publish calls every subscriber in subscription order. A panicking subscriber is logged
// and skipped. The subscriber list is snapshotted, so callbacks may (un)subscribe freely.
// Delivery stops as soon as the source is closed, even mid-snapshot.
func (s *source[T]) publish(ev T) {
	s.mu.Lock()
	subs := s.subs
	s.mu.Unlock()

	for _, sub := range subs {
		if s.isClosed() {
			return
		}
		s.deliver(sub, ev)
	}
}

func (s *source[T]) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *source[T]) deliver(sub subscriber[T], ev T) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("subscriber panicked",
				s.logger.Field().String("source", s.name),
				s.logger.Field().String("subscription", sub.id.String()),
				s.logger.Field().String("panic", fmt.Sprint(r)))
		}
	}()
	sub.fn(ev)
}

// close drops every subscriber; later subscriptions are ignored.
func (s *source[T]) close() {
	s.mu.Lock()
	s.subs = nil
	s.closed = true
	s.mu.Unlock()
}

func (s *source[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
