package search

import (
	"cardpilot/application/process"
)

// Search type markers reported on every response so callers can tell a
// degraded local answer from a remote one.
const (
	SearchTypeLocal    = "local"
	SearchTypeSemantic = "semantic"
)

// ResultCard is the slice of a card a search result exposes.
type ResultCard struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	SpaceID string `json:"spaceId"`
}

// SpaceRef names the space a result came from.
type SpaceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchResult is one ranked match. Score and Relevance carry the additive
// heuristic weight verbatim; neither is a normalized probability.
type SearchResult struct {
	Card      ResultCard `json:"card"`
	Space     *SpaceRef  `json:"space"`
	Score     float64    `json:"score"`
	Relevance float64    `json:"relevance"`
}

// SearchResponse is the full payload a query produces, local or remote.
type SearchResponse struct {
	Results     []SearchResult  `json:"results"`
	TotalFound  int             `json:"totalFound"`
	SearchType  string          `json:"searchType"`
	Processes   []process.Chain `json:"processes"`
	Confidence  float64         `json:"confidence"`
	Suggestions []string        `json:"suggestions"`
}

// EmptyResponse is what empty or whitespace-only queries yield: no index
// query, no network call, nothing to render.
func EmptyResponse(searchType string) *SearchResponse {
	return &SearchResponse{
		Results:     []SearchResult{},
		SearchType:  searchType,
		Processes:   []process.Chain{},
		Suggestions: []string{},
	}
}
