package engine

import (
	"testing"

	"github.com/leandrodaf/chordsense/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestSourceDeliversInSubscriptionOrder(t *testing.T) {
	s := newSource[int]("test", logger.NewNopLogger())
	var got []string
	s.subscribe(func(v int) { got = append(got, "a") })
	s.subscribe(func(v int) { panic("b") })
	s.subscribe(func(v int) { got = append(got, "c") })

	s.publish(1)
	assert.Equal(t, []string{"a", "c"}, got)
}

func TestSourceUnsubscribeDuringPublish(t *testing.T) {
	s := newSource[int]("test", logger.NewNopLogger())
	calls := 0
	var unsubscribe func()
	unsubscribe = s.subscribe(func(int) {
		calls++
		unsubscribe()
	})
	s.subscribe(func(int) { calls++ })

	s.publish(1)
	s.publish(2)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, s.len())
}

func TestSourceClosed(t *testing.T) {
	s := newSource[int]("test", logger.NewNopLogger())
	unsubscribe := s.subscribe(func(int) { t.Fatal("closed source delivered") })
	s.close()
	s.publish(1)
	unsubscribe()

	late := s.subscribe(func(int) { t.Fatal("closed source delivered") })
	s.publish(2)
	late()
	assert.Equal(t, 0, s.len())
}

func TestSourceIgnoresNilHandler(t *testing.T) {
	s := newSource[int]("test", logger.NewNopLogger())
	s.subscribe(nil)()
	assert.Equal(t, 0, s.len())
}

func TestSourceStopsWhenClosedMidPublish(t *testing.T) {
	s := newSource[int]("test", logger.NewNopLogger())
	var got []string
	s.subscribe(func(int) { got = append(got, "a") })
	s.subscribe(func(int) {
		got = append(got, "b")
		s.close()
	})
	s.subscribe(func(int) { got = append(got, "c") })

	s.publish(1)
	assert.Equal(t, []string{"a", "b"}, got)
}
