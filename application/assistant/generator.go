package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cardpilot/application/process"
	"cardpilot/application/search"
)

// FallbackDisclaimer suffixes every locally synthesized reply so downstream
// consumers can detect degraded mode. Tests and the UI match on this literal.
const FallbackDisclaimer = "[Note: AI assistant is temporarily unavailable. This answer was assembled from your cards as a fallback.]"

// FallbackConfidence is the fixed confidence of every fallback reply,
// regardless of match quality.
const FallbackConfidence = 0.3

const (
	maxSources        = 5
	rawDigestLimit    = 5
	excerptRuneLength = 100
)

// SourceRef cites one card a reply drew on.
type SourceRef struct {
	Space     string  `json:"space"`
	Card      string  `json:"card"`
	CardID    string  `json:"cardId"`
	SpaceID   string  `json:"spaceId"`
	Relevance float64 `json:"relevance"`
}

// Reply is the assistant's final answer, remote-generated or locally
// synthesized.
type Reply struct {
	Content    string                 `json:"content"`
	Sources    []SourceRef            `json:"sources"`
	Confidence float64                `json:"confidence"`
	Fallback   bool                   `json:"fallback"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// GenerationRequest is the contract of the remote generation endpoint.
type GenerationRequest struct {
	ConversationID string
	Content        string
	Mode           Mode
	Context        string // serialized prompt, sent as the context field
	Images         []Image
}

// Image is an attachment forwarded to the remote service untouched.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// GenerationResult is the remote service's successful payload.
type GenerationResult struct {
	Content    string
	Confidence float64
	Metadata   map[string]interface{}
}

// GenerationClient submits a generation request to the remote assistant.
type GenerationClient interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// Generator obtains the final reply with graceful degradation: the remote
// service first, a deterministic local synthesis when it fails. It never
// returns an error; the contract is "always a usable reply".
type Generator struct {
	client GenerationClient
	logger *zap.Logger
}

// NewGenerator creates a generator. client may be nil, which forces the
// fallback path.
func NewGenerator(client GenerationClient, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, logger: logger}
}

// Generate builds the mode-specific prompt from the search bundle, attempts
// remote generation, and on any failure synthesizes a deterministic reply
// from the best-matching cards. Sources are derived from the result list the
// same way on both paths.
func (g *Generator) Generate(
	ctx context.Context,
	conversationID string,
	message string,
	mode Mode,
	images []Image,
	results []search.SearchResult,
	chains []process.Chain,
) *Reply {
	if !mode.Valid() {
		mode = ModeGenerateResponse
	}

	sources := SourcesFromResults(results)
	prompt := BuildPrompt(message, mode, results, chains)

	if g.client != nil {
		res, err := g.client.Generate(ctx, GenerationRequest{
			ConversationID: conversationID,
			Content:        message,
			Mode:           mode,
			Context:        prompt,
			Images:         images,
		})
		if err == nil && res != nil {
			return &Reply{
				Content:    res.Content,
				Sources:    sources,
				Confidence: res.Confidence,
				Metadata:   res.Metadata,
			}
		}
		g.logger.Warn("remote generation failed, synthesizing fallback reply",
			zap.String("mode", string(mode)),
			zap.Int("results", len(results)),
			zap.Error(err),
		)
	}

	return &Reply{
		Content:    fallbackContent(mode, results) + "\n\n" + FallbackDisclaimer,
		Sources:    sources,
		Confidence: FallbackConfidence,
		Fallback:   true,
	}
}

// SourcesFromResults derives citations from the top results. The derivation
// is identical whether the reply came from the remote service or the
// fallback.
func SourcesFromResults(results []search.SearchResult) []SourceRef {
	n := len(results)
	if n > maxSources {
		n = maxSources
	}

	sources := make([]SourceRef, 0, n)
	for _, r := range results[:n] {
		spaceName := ""
		if r.Space != nil {
			spaceName = r.Space.Name
		}
		sources = append(sources, SourceRef{
			Space:     spaceName,
			Card:      r.Card.Title,
			CardID:    r.Card.ID,
			SpaceID:   r.Card.SpaceID,
			Relevance: r.Relevance,
		})
	}
	return sources
}

// fallbackContent selects the deterministic reply body by mode.
func fallbackContent(mode Mode, results []search.SearchResult) string {
	switch mode {
	case ModeGenerateResponse:
		if len(results) > 0 && strings.TrimSpace(results[0].Card.Content) != "" {
			return results[0].Card.Content
		}
		if len(results) > 0 {
			return results[0].Card.Title
		}
		return "I'm sorry, I couldn't find any information about that in your cards."

	case ModeRawSearch:
		if len(results) == 0 {
			return "No matching cards were found."
		}
		n := len(results)
		if n > rawDigestLimit {
			n = rawDigestLimit
		}
		lines := make([]string, 0, n+1)
		lines = append(lines, fmt.Sprintf("Found %d matching cards:", len(results)))
		for i, r := range results[:n] {
			lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, r.Card.Title, excerpt(r.Card.Content, excerptRuneLength)))
		}
		return strings.Join(lines, "\n")

	default:
		return fmt.Sprintf("%d relevant cards found. The AI assistant is unavailable, so a generated answer could not be produced.", len(results))
	}
}

// excerpt truncates content to at most n runes, appending an ellipsis when
// anything was cut.
func excerpt(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n]) + "..."
}
