package cards

import (
	"strings"
	"time"
)

// CardType distinguishes the editing surfaces a card can come from.
type CardType string

const (
	TypeQA       CardType = "qa"
	TypeNote     CardType = "note"
	TypeCategory CardType = "category"
)

// Card is a titled content unit owned by exactly one space.
// The schema is explicit: a missing field is an empty string, never an
// alternate key name.
type Card struct {
	ID        string    `json:"id" validate:"required"`
	Type      CardType  `json:"type,omitempty"`
	Title     string    `json:"title"`
	Question  string    `json:"question,omitempty"`
	Answer    string    `json:"answer,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Category  string    `json:"category,omitempty"`
	SpaceID   string    `json:"spaceId"`
	Position  Position  `json:"position"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Position locates a card on the canvas. The retrieval pipeline carries it
// through untouched.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SearchableText returns the normalized text the index stores for the card:
// the lower-cased concatenation of category, title, question, answer and
// notes, in that order.
func (c Card) SearchableText() string {
	parts := []string{c.Category, c.Title, c.Question, c.Answer, c.Notes}
	joined := strings.Join(parts, " ")
	return strings.ToLower(strings.Join(strings.Fields(joined), " "))
}

// ContentText returns the card's display content: the first non-empty of
// answer, notes and question.
func (c Card) ContentText() string {
	for _, s := range []string{c.Answer, c.Notes, c.Question} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// IsCategoryCard reports whether the card carries a non-empty category.
// Category cards receive a flat relevance boost during scoring.
func (c Card) IsCategoryCard() bool {
	return strings.TrimSpace(c.Category) != ""
}

// Space is an access-scoped collection of cards.
type Space struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	OwnerID string   `json:"ownerId"`
	Members []string `json:"members"`
}

// CanAccess reports whether the user owns the space or appears in its member
// list.
func (s Space) CanAccess(userID string) bool {
	if s.OwnerID == userID {
		return true
	}
	for _, m := range s.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Connection is a directed edge between two cards. Duplicates and cycles are
// legal and must be tolerated by every consumer.
type Connection struct {
	FromCardID string `json:"fromCardId"`
	ToCardID   string `json:"toCardId"`
}

// SearchMode selects between the local index and the cross-space remote
// search.
type SearchMode string

const (
	// ModeCurrent searches the currently open space through the local index.
	ModeCurrent SearchMode = "current"
	// ModeAll searches every accessible space through the remote service.
	ModeAll SearchMode = "all"
)

// Valid reports whether m is one of the two supported modes.
func (m SearchMode) Valid() bool {
	return m == ModeCurrent || m == ModeAll
}
