package search

import (
	"sync"

	"cardpilot/domain/cards"
)

// Workspace is the currently open space's card set as seen by the retrieval
// pipeline: the cards, their connections and the index built over them.
// Editing collaborators replace the snapshot wholesale; the index is rebuilt
// synchronously before the replacement becomes visible to queries.
type Workspace struct {
	mu          sync.RWMutex
	space       cards.Space
	cards       []cards.Card
	byID        map[string]cards.Card
	connections []cards.Connection
	index       *Index
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{
		byID:  make(map[string]cards.Card),
		index: NewIndex(),
	}
}

// Replace swaps in a new space snapshot and rebuilds the index over it.
func (w *Workspace) Replace(space cards.Space, cs []cards.Card, conns []cards.Connection) {
	byID := make(map[string]cards.Card, len(cs))
	for _, c := range cs {
		byID[c.ID] = c
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.space = space
	w.cards = cs
	w.byID = byID
	w.connections = conns
	w.index.Rebuild(cs)
}

// Space returns the active space.
func (w *Workspace) Space() cards.Space {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.space
}

// CardByID looks up a card in the snapshot.
func (w *Workspace) CardByID(id string) (cards.Card, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.byID[id]
	return c, ok
}

// CardsByID resolves ids to cards, preserving order and skipping unknown
// ids.
func (w *Workspace) CardsByID(ids []string) []cards.Card {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]cards.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := w.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Connections returns the snapshot's connection list.
func (w *Workspace) Connections() []cards.Connection {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connections
}

// Index returns the index over the snapshot.
func (w *Workspace) Index() *Index {
	return w.index
}
