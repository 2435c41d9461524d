package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"cardpilot/application/process"
	"cardpilot/domain/cards"
	pkgerrors "cardpilot/pkg/errors"
)

// RemoteSearcher is the cross-space search collaborator's contract.
type RemoteSearcher interface {
	Search(ctx context.Context, query string, mode cards.SearchMode, limit int, spaceID string) (*SearchResponse, error)
}

// Service runs one query through the retrieval pipeline: local index plus
// scorer for the current space, the remote service (behind the result cache)
// for all spaces, and chain discovery over the winners. The contract is
// "always returns a usable result object": remote failures degrade to the
// local path instead of propagating.
type Service struct {
	scorer *Scorer
	walker *process.Walker
	cache  *ResultCache
	remote RemoteSearcher
	logger *zap.Logger
	limit  int
}

// NewService wires the pipeline. remote may be nil, in which case mode "all"
// always degrades to the local path.
func NewService(cache *ResultCache, walker *process.Walker, remote RemoteSearcher, limit int, logger *zap.Logger) *Service {
	if limit <= 0 {
		limit = 10
	}
	return &Service{
		scorer: NewScorer(),
		walker: walker,
		cache:  cache,
		remote: remote,
		logger: logger,
		limit:  limit,
	}
}

// Search executes a query against the workspace. Empty or whitespace-only
// queries return an empty response without touching the index or the
// network.
func (s *Service) Search(ctx context.Context, ws *Workspace, query string, mode cards.SearchMode) (*SearchResponse, error) {
	if !mode.Valid() {
		return nil, pkgerrors.NewValidationError("search mode must be 'current' or 'all'")
	}
	if strings.TrimSpace(query) == "" {
		return EmptyResponse(SearchTypeLocal), nil
	}

	if mode == cards.ModeCurrent {
		return s.searchLocal(ws, query), nil
	}
	return s.searchAll(ctx, ws, query), nil
}

// ClearCache purges the result cache; exposed for global invalidation such
// as logout.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// searchAll asks the remote service through the cache and falls back to the
// local pipeline when the remote call fails.
func (s *Service) searchAll(ctx context.Context, ws *Workspace, query string) *SearchResponse {
	if s.remote == nil {
		return s.searchLocal(ws, query)
	}

	space := ws.Space()
	key := s.cache.Key(query, cards.ModeAll, space.ID)

	resp, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (*SearchResponse, error) {
		remote, err := s.remote.Search(ctx, query, cards.ModeAll, s.limit, space.ID)
		if err != nil {
			return nil, pkgerrors.NewExternalError("search", err)
		}
		return remote, nil
	})
	if err != nil {
		s.logger.Warn("remote search failed, falling back to local index",
			zap.String("spaceID", space.ID),
			zap.Error(err),
		)
		return s.searchLocal(ws, query)
	}
	return resp
}

// searchLocal runs index + scorer + chain discovery over the open space.
func (s *Service) searchLocal(ws *Workspace, query string) *SearchResponse {
	ids := ws.Index().Query(query, s.limit)
	results := s.scorer.Score(query, ws.CardsByID(ids), ws.Space())

	resp := &SearchResponse{
		Results:     results,
		TotalFound:  len(results),
		SearchType:  SearchTypeLocal,
		Processes:   s.discoverChains(ws, results),
		Confidence:  localConfidence(results),
		Suggestions: []string{},
	}
	return resp
}

// discoverChains walks connections among the ranked results.
func (s *Service) discoverChains(ws *Workspace, results []SearchResult) []process.Chain {
	if s.walker == nil || len(results) < 2 {
		return []process.Chain{}
	}

	candidates := make([]string, len(results))
	titles := make(map[string]string, len(results))
	for i, r := range results {
		candidates[i] = r.Card.ID
		titles[r.Card.ID] = r.Card.Title
	}

	chains := s.walker.Discover(candidates, ws.Connections(), titles)
	if chains == nil {
		return []process.Chain{}
	}
	return chains
}

// localConfidence maps the winner's additive score onto [0,1] for parity
// with the remote payload's confidence field.
func localConfidence(results []SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	c := results[0].Score / 100
	if c > 1 {
		c = 1
	}
	return c
}
