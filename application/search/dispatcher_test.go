package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardpilot/domain/cards"
)

// searchRecorder captures every query the dispatcher issues.
type searchRecorder struct {
	mu      sync.Mutex
	queries []string
	modes   []cards.SearchMode
	cleared int
}

func (r *searchRecorder) search(ctx context.Context, query string, mode cards.SearchMode) (*SearchResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	r.modes = append(r.modes, mode)
	return EmptyResponse(SearchTypeLocal), nil
}

func (r *searchRecorder) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

func (r *searchRecorder) snapshot() ([]string, []cards.SearchMode, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...), append([]cards.SearchMode(nil), r.modes...), r.cleared
}

func newTestDispatcher(t *testing.T, rec *searchRecorder, window time.Duration) *Dispatcher {
	t.Helper()
	d := NewDispatcher(context.Background(), DispatcherConfig{
		Window:  window,
		Search:  rec.search,
		OnClear: rec.clear,
	})
	t.Cleanup(d.Close)
	return d
}

func TestDispatcher_SetInput_DebouncesRapidEdits(t *testing.T) {
	// Arrange
	rec := &searchRecorder{}
	d := newTestDispatcher(t, rec, 30*time.Millisecond)

	// Act: five edits inside the window, then silence.
	for _, text := range []string{"r", "re", "ref", "refu", "refund"} {
		d.SetInput(text)
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(80 * time.Millisecond)

	// Assert: only the final value fired.
	queries, _, _ := rec.snapshot()
	require.Len(t, queries, 1)
	assert.Equal(t, "refund", queries[0])
	assert.Equal(t, "refund", d.Settled())
}

func TestDispatcher_SetInput_EmptyClearsSynchronously(t *testing.T) {
	// Arrange
	rec := &searchRecorder{}
	d := newTestDispatcher(t, rec, 30*time.Millisecond)
	d.SetInput("refund")
	time.Sleep(60 * time.Millisecond)

	// Act
	d.SetInput("   ")

	// Assert: cleared immediately, no extra search.
	queries, _, cleared := rec.snapshot()
	assert.Len(t, queries, 1)
	assert.Equal(t, 1, cleared)
	assert.Equal(t, "", d.Settled())
}

func TestDispatcher_SetInput_EmptyCancelsPendingTimer(t *testing.T) {
	// Arrange
	rec := &searchRecorder{}
	d := newTestDispatcher(t, rec, 30*time.Millisecond)

	// Act: clear before the window elapses.
	d.SetInput("refund")
	d.SetInput("")
	time.Sleep(80 * time.Millisecond)

	// Assert
	queries, _, cleared := rec.snapshot()
	assert.Empty(t, queries)
	assert.Equal(t, 1, cleared)
}

func TestDispatcher_SetMode_ReissuesSettledQuery(t *testing.T) {
	// Arrange
	rec := &searchRecorder{}
	d := newTestDispatcher(t, rec, 10*time.Millisecond)
	d.SetInput("refund")
	time.Sleep(50 * time.Millisecond)

	// Act: toggling fires immediately, no debounce wait.
	d.SetMode(cards.ModeAll)

	// Assert
	queries, modes, _ := rec.snapshot()
	require.Len(t, queries, 2)
	assert.Equal(t, "refund", queries[1])
	assert.Equal(t, cards.ModeAll, modes[1])
	assert.Equal(t, cards.ModeAll, d.Mode())
}

func TestDispatcher_SetMode_NoSettledQueryNoSearch(t *testing.T) {
	// Arrange
	rec := &searchRecorder{}
	d := newTestDispatcher(t, rec, 10*time.Millisecond)

	// Act
	d.SetMode(cards.ModeAll)

	// Assert
	queries, _, _ := rec.snapshot()
	assert.Empty(t, queries)
	assert.Equal(t, cards.ModeAll, d.Mode())
}

func TestDispatcher_SetMode_InvalidIgnored(t *testing.T) {
	rec := &searchRecorder{}
	d := newTestDispatcher(t, rec, 10*time.Millisecond)

	d.SetMode(cards.SearchMode("bogus"))

	assert.Equal(t, cards.ModeCurrent, d.Mode())
}

func TestDispatcher_Close_DropsPendingInput(t *testing.T) {
	// Arrange
	rec := &searchRecorder{}
	d := NewDispatcher(context.Background(), DispatcherConfig{
		Window:  30 * time.Millisecond,
		Search:  rec.search,
		OnClear: rec.clear,
	})

	// Act
	d.SetInput("refund")
	d.Close()
	time.Sleep(80 * time.Millisecond)

	// Assert
	queries, _, _ := rec.snapshot()
	assert.Empty(t, queries)
}
