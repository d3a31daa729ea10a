package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leandrodaf/chordsense/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInterpreter struct {
	contracts.Interpreter
	split       int
	subscriber  func(contracts.ChordEvent)
	unsubscribe int
}

func (f *fakeInterpreter) SubscribeToChordEvents(fn func(contracts.ChordEvent)) func() {
	f.subscriber = fn
	return func() { f.unsubscribe++ }
}

func (f *fakeInterpreter) CurrentSplitPoint() int {
	return f.split
}

func chord(notes ...int) contracts.ChordEvent {
	return contracts.ChordEvent{
		ID:             uuid.New(),
		Hand:           contracts.RightHand,
		Notes:          notes,
		Velocities:     make([]int, len(notes)),
		Role:           contracts.Chord,
		PitchClasses:   notes,
		EmittedAt:      time.Unix(0, 0),
		WindowDuration: 40 * time.Millisecond,
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeNotes(t *testing.T, rec *httptest.ResponseRecorder) [][]int {
	t.Helper()
	var body []struct {
		Notes []int `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	out := make([][]int, len(body))
	for i, b := range body {
		out[i] = b.Notes
	}
	return out
}

func TestHealthAndSplit(t *testing.T) {
	f := &fakeInterpreter{split: 57}
	s := New(f)

	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(t, s.Handler(), "/split")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"splitPitch":57}`, rec.Body.String())
}

func TestLatestWithoutEvents(t *testing.T) {
	s := New(&fakeInterpreter{})

	rec := get(t, s.Handler(), "/chords/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, s.Handler(), "/chords")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestChordsAreNewestLast(t *testing.T) {
	f := &fakeInterpreter{}
	s := New(f, WithHistorySize(3))
	for i := 0; i < 5; i++ {
		f.subscriber(chord(60 + i))
	}

	rec := get(t, s.Handler(), "/chords")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [][]int{{62}, {63}, {64}}, decodeNotes(t, rec))

	rec = get(t, s.Handler(), "/chords?limit=2")
	assert.Equal(t, [][]int{{63}, {64}}, decodeNotes(t, rec))

	rec = get(t, s.Handler(), "/chords/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	var latest struct {
		Notes []int  `json:"notes"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, []int{64}, latest.Notes)
	assert.Equal(t, contracts.Chord.String(), latest.Role)
}

func TestInvalidLimit(t *testing.T) {
	s := New(&fakeInterpreter{})
	for _, q := range []string{"0", "-3", "many"} {
		rec := get(t, s.Handler(), "/chords?limit="+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := New(&fakeInterpreter{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/split", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	s := New(&fakeInterpreter{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://display.local")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	s = New(&fakeInterpreter{}, WithAllowedOrigins("http://stage.local"))
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCloseUnsubscribes(t *testing.T) {
	f := &fakeInterpreter{}
	s := New(f)
	s.Close()
	assert.Equal(t, 1, f.unsubscribe)
}
