package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cardpilot/domain/cards"
)

// Session ties one user's workspace to a dispatcher and keeps the latest
// settled response. Responses are applied last-write-wins together with the
// query that produced them, so a stale response is detectable by comparing
// queries.
type Session struct {
	workspace  *Workspace
	dispatcher *Dispatcher

	mu          sync.RWMutex
	latest      *SearchResponse
	latestQuery string
}

// NewSession creates a session whose dispatcher runs queries through the
// given service.
func NewSession(ctx context.Context, svc *Service, cfg SessionConfig) *Session {
	s := &Session{
		workspace: NewWorkspace(),
	}

	s.dispatcher = NewDispatcher(ctx, DispatcherConfig{
		Window: cfg.DebounceWindow,
		Mode:   cfg.Mode,
		Logger: cfg.Logger,
		Search: func(ctx context.Context, query string, mode cards.SearchMode) (*SearchResponse, error) {
			return svc.Search(ctx, s.workspace, query, mode)
		},
		OnResults: s.apply,
		OnClear:   s.clear,
	})

	return s
}

// SessionConfig configures a Session.
type SessionConfig struct {
	DebounceWindow time.Duration
	Mode           cards.SearchMode
	Logger         *zap.Logger
}

// Workspace returns the session's card snapshot.
func (s *Session) Workspace() *Workspace {
	return s.workspace
}

// SetInput forwards an input change to the dispatcher.
func (s *Session) SetInput(text string) {
	s.dispatcher.SetInput(text)
}

// SetMode toggles the search mode, re-issuing the settled query.
func (s *Session) SetMode(mode cards.SearchMode) {
	s.dispatcher.SetMode(mode)
}

// Mode returns the session's active search mode.
func (s *Session) Mode() cards.SearchMode {
	return s.dispatcher.Mode()
}

// Latest returns the most recent settled response and the query that
// produced it. The response is nil until a query settles.
func (s *Session) Latest() (string, *SearchResponse) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestQuery, s.latest
}

// Close tears down the session's dispatcher.
func (s *Session) Close() {
	s.dispatcher.Close()
}

func (s *Session) apply(query string, resp *SearchResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestQuery = query
	s.latest = resp
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestQuery = ""
	s.latest = nil
}
