package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cardpilot/domain/cards"
)

// DefaultDebounceWindow is the settle window for query input.
const DefaultDebounceWindow = 300 * time.Millisecond

// SearchFunc executes one settled query. The dispatcher never inspects the
// error beyond logging it; a failed search simply produces no callback.
type SearchFunc func(ctx context.Context, query string, mode cards.SearchMode) (*SearchResponse, error)

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Window    time.Duration
	Mode      cards.SearchMode
	Search    SearchFunc
	OnResults func(query string, resp *SearchResponse)
	OnClear   func()
	Logger    *zap.Logger
}

// Dispatcher owns the debounced input-to-search state machine. Input changes
// settle after the window elapses with no further edits (trailing-edge
// debounce); only the final value triggers a search. It is an explicitly
// constructed stateful instance with a create/use/Close lifecycle, never an
// ambient singleton.
//
// A new query while one is in flight is allowed to race; consumers reconcile
// by binding to the query echoed alongside each response (last-write-wins).
type Dispatcher struct {
	mu      sync.Mutex
	window  time.Duration
	timer   *time.Timer
	mode    cards.SearchMode
	settled string
	closed  bool

	ctx       context.Context
	search    SearchFunc
	onResults func(query string, resp *SearchResponse)
	onClear   func()
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. ctx bounds the searches the dispatcher
// issues on its own timer goroutine.
func NewDispatcher(ctx context.Context, cfg DispatcherConfig) *Dispatcher {
	if cfg.Window <= 0 {
		cfg.Window = DefaultDebounceWindow
	}
	if !cfg.Mode.Valid() {
		cfg.Mode = cards.ModeCurrent
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Dispatcher{
		window:    cfg.Window,
		mode:      cfg.Mode,
		ctx:       ctx,
		search:    cfg.Search,
		onResults: cfg.OnResults,
		onClear:   cfg.OnClear,
		logger:    cfg.Logger,
	}
}

// SetInput feeds one input change. A change arriving before the settle
// window elapses resets the timer. Empty or whitespace-only input clears
// results synchronously without invoking the index or the network.
func (d *Dispatcher) SetInput(text string) {
	trimmed := strings.TrimSpace(text)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if trimmed == "" {
		d.settled = ""
		clear := d.onClear
		d.mu.Unlock()
		if clear != nil {
			clear()
		}
		return
	}

	d.timer = time.AfterFunc(d.window, func() {
		d.fire(trimmed)
	})
	d.mu.Unlock()
}

// SetMode switches between local and cross-space search. Toggling re-issues
// the search immediately for the settled query without waiting for a new
// input change.
func (d *Dispatcher) SetMode(mode cards.SearchMode) {
	if !mode.Valid() {
		return
	}

	d.mu.Lock()
	if d.closed || mode == d.mode {
		d.mu.Unlock()
		return
	}
	d.mode = mode
	settled := d.settled
	d.mu.Unlock()

	if settled != "" {
		d.issue(settled, mode)
	}
}

// Mode returns the active search mode.
func (d *Dispatcher) Mode() cards.SearchMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Settled returns the last value that survived the debounce window.
func (d *Dispatcher) Settled() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

// Close cancels any pending debounce. Further input is ignored.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// fire runs on the timer goroutine once the window settles.
func (d *Dispatcher) fire(query string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.settled = query
	mode := d.mode
	d.mu.Unlock()

	d.issue(query, mode)
}

func (d *Dispatcher) issue(query string, mode cards.SearchMode) {
	resp, err := d.search(d.ctx, query, mode)
	if err != nil {
		d.logger.Warn("search dispatch failed",
			zap.String("query", query),
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		return
	}
	if d.onResults != nil {
		d.onResults(query, resp)
	}
}
