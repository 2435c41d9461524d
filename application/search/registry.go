package search

import (
	"context"
	"fmt"
	"sync"
)

// Registry hands out one Session per (user, space) pair and tears them all
// down on shutdown.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	svc      *Service
	cfg      SessionConfig
	ctx      context.Context
}

// NewRegistry creates a registry. ctx bounds every session it creates.
func NewRegistry(ctx context.Context, svc *Service, cfg SessionConfig) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		svc:      svc,
		cfg:      cfg,
		ctx:      ctx,
	}
}

// Session returns the session for the user's active space, creating it on
// first use.
func (r *Registry) Session(userID, spaceID string) *Session {
	key := fmt.Sprintf("%s|%s", userID, spaceID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		return s
	}
	s := NewSession(r.ctx, r.svc, r.cfg)
	r.sessions[key] = s
	return s
}

// Drop closes and removes the user's session, e.g. on logout.
func (r *Registry) Drop(userID, spaceID string) {
	key := fmt.Sprintf("%s|%s", userID, spaceID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		s.Close()
		delete(r.sessions, key)
	}
}

// Close tears down every session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, s := range r.sessions {
		s.Close()
		delete(r.sessions, key)
	}
}
