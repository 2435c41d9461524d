package search

import (
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"cardpilot/domain/cards"
)

// Index maintains an invertible token structure over the current space's
// cards. It must be rebuilt whenever the card set reference or the active
// space changes; callers serialize Rebuild against Query.
type Index struct {
	mu    sync.RWMutex
	order []string            // insertion order; downstream tie-breaks depend on it
	docs  map[string][]string // card id -> normalized tokens
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		docs: make(map[string][]string),
	}
}

// Rebuild clears prior state and indexes every card's normalized searchable
// text. Purely synchronous, no I/O.
func (idx *Index) Rebuild(cs []cards.Card) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.order = idx.order[:0]
	idx.docs = make(map[string][]string, len(cs))

	for _, c := range cs {
		if c.ID == "" {
			continue
		}
		idx.order = append(idx.order, c.ID)
		idx.docs[c.ID] = strings.Fields(c.SearchableText())
	}
}

// Len returns the number of indexed cards.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.order)
}

// Query returns up to limit candidate card ids matching text, using
// forward-tokenized fuzzy matching: every query token must prefix- or
// fuzzy-match some token of the card. Candidate order follows insertion
// order and is not authoritative; the scorer re-ranks.
func (idx *Index) Query(text string, limit int) []string {
	terms := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(terms) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if limit <= 0 {
		limit = len(idx.order)
	}

	var ids []string
	for _, id := range idx.order {
		if matchesAll(terms, idx.docs[id]) {
			ids = append(ids, id)
			if len(ids) >= limit {
				break
			}
		}
	}
	return ids
}

// matchesAll reports whether every query term hits at least one document
// token, tolerating partial-token prefixes and small fuzzy gaps.
func matchesAll(terms []string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, term := range terms {
		if !matchesAny(term, tokens) {
			return false
		}
	}
	return true
}

func matchesAny(term string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.HasPrefix(tok, term) {
			return true
		}
	}
	// Prefix miss: fall back to subsequence matching so transposed or
	// partially typed tokens still surface candidates.
	return len(fuzzy.Find(term, tokens)) > 0
}
