package search

import (
	"sort"
	"strings"

	"cardpilot/domain/cards"
)

// Field-weight heuristics. Scores are additive and deliberately not
// normalized; ranking only needs a sortable weight.
const (
	categoryMatchWeight = 50
	titleMatchWeight    = 30
	bodyFieldWeight     = 10 // per matching body field, uncapped
	categoryCardBoost   = 30 // flat boost for any card carrying a category
)

// Scorer converts a candidate list plus the original query into ranked
// results.
type Scorer struct{}

// NewScorer creates a scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score ranks candidates against the raw query string. Matching is
// case-insensitive substring containment. Results are stable-sorted
// descending by score, so ties keep the candidate list's original relative
// order. Zero-score candidates are dropped defensively; the index should not
// produce them, but the scorer never trusts that.
func (s *Scorer) Score(query string, candidates []cards.Card, space cards.Space) []SearchResult {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	var spaceRef *SpaceRef
	if space.ID != "" {
		spaceRef = &SpaceRef{ID: space.ID, Name: space.Name}
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		score := scoreCard(needle, c)
		if score <= 0 {
			continue
		}
		results = append(results, SearchResult{
			Card: ResultCard{
				ID:      c.ID,
				Title:   c.Title,
				Content: c.ContentText(),
				SpaceID: c.SpaceID,
			},
			Space:     spaceRef,
			Score:     score,
			Relevance: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func scoreCard(needle string, c cards.Card) float64 {
	var score float64

	if containsFold(c.Category, needle) {
		score += categoryMatchWeight
	}
	if containsFold(c.Title, needle) {
		score += titleMatchWeight
	}
	for _, field := range []string{c.Question, c.Answer, c.Notes} {
		if containsFold(field, needle) {
			score += bodyFieldWeight
		}
	}
	if c.IsCategoryCard() {
		score += categoryCardBoost
	}

	return score
}

func containsFold(haystack, needle string) bool {
	if haystack == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}
