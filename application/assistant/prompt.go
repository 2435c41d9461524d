package assistant

import (
	"fmt"
	"math"
	"strings"

	"cardpilot/application/process"
	"cardpilot/application/search"
)

// Mode selects the assistant's operating instruction set.
type Mode string

const (
	ModeGenerateResponse Mode = "generate-response"
	ModeRephrase         Mode = "rephrase"
	ModeExplain          Mode = "explain"
	ModeSummarize        Mode = "summarize"
	ModeTranslate        Mode = "translate"
	ModeImprove          Mode = "improve"
	ModeExplainProcess   Mode = "explain-process"
	ModeRawSearch        Mode = "raw-search"
)

// Valid reports whether m is a supported assistant mode.
func (m Mode) Valid() bool {
	_, ok := modeInstructions[m]
	return ok
}

// NoResultsPlaceholder stands in for the context block when the search
// produced nothing. Generation still proceeds with the placeholder rather
// than being skipped.
const NoResultsPlaceholder = "No relevant cards found."

var modeInstructions = map[Mode]string{
	ModeGenerateResponse: "Answer the user's message using only the card context below. If the context does not cover the question, say so plainly.",
	ModeRephrase:         "Rewrite the user's message in a clearer, friendlier tone. Preserve its meaning; use the card context for terminology.",
	ModeExplain:          "Explain the topic of the user's message step by step, grounding every claim in the card context below.",
	ModeSummarize:        "Summarize the card context below as it relates to the user's message, in at most five sentences.",
	ModeTranslate:        "Translate the user's message into the requested target language. Keep card titles from the context untranslated.",
	ModeImprove:          "Suggest concrete improvements to the user's message, using conventions found in the card context.",
	ModeExplainProcess:   "Describe the multi-step processes listed below, in order, and relate each step to the user's message.",
	ModeRawSearch:        "Return the matching cards from the context below as a plain list with one line of commentary each. Do not add information.",
}

// BuildPrompt assembles the text handed to the remote generation call: the
// mode instructions, the literal user message, the serialized top search
// results, and, for the process mode, the discovered chains.
func BuildPrompt(message string, mode Mode, results []search.SearchResult, chains []process.Chain) string {
	instructions, ok := modeInstructions[mode]
	if !ok {
		instructions = modeInstructions[ModeGenerateResponse]
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nUser message: ")
	b.WriteString(message)
	b.WriteString("\n\nRelevant cards:\n")
	b.WriteString(SerializeResults(results))

	if mode == ModeExplainProcess {
		b.WriteString("\n\nDetected processes:\n")
		b.WriteString(SerializeChains(chains))
	}

	return b.String()
}

// SerializeResults renders the top search results as the prompt context
// block, one numbered entry per card, joined by blank lines.
func SerializeResults(results []search.SearchResult) string {
	if len(results) == 0 {
		return NoResultsPlaceholder
	}

	entries := make([]string, 0, len(results))
	for i, r := range results {
		spaceName := "unknown"
		if r.Space != nil && r.Space.Name != "" {
			spaceName = r.Space.Name
		}
		entries = append(entries, fmt.Sprintf("%d. Card: %q (Space: %s)\nContent: %s\nRelevance: %d%%",
			i+1, r.Card.Title, spaceName, r.Card.Content, RelevancePercent(r.Relevance)))
	}
	return strings.Join(entries, "\n\n")
}

// SerializeChains renders discovered process chains, one line per chain.
func SerializeChains(chains []process.Chain) string {
	if len(chains) == 0 {
		return "No processes detected."
	}

	lines := make([]string, 0, len(chains))
	for _, c := range chains {
		lines = append(lines, fmt.Sprintf("- %s: %d steps (%d%% confidence)",
			c.Name, c.Steps(), int(math.Round(c.Confidence*100))))
	}
	return strings.Join(lines, "\n")
}

// RelevancePercent converts a relevance weight to a display percentage.
// Remote relevances arrive normalized to [0,1]; local scores are additive
// weights kept verbatim, so anything above 1 is treated as a percentage and
// capped at 100.
func RelevancePercent(relevance float64) int {
	if relevance <= 1 {
		return int(math.Round(relevance * 100))
	}
	if relevance > 100 {
		return 100
	}
	return int(math.Round(relevance))
}
