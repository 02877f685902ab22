package model

import "time"

// Card is a single harvested content fragment considered for inclusion in a book
type Card struct {
	ID        string     `json:"id"`
	BookID    string     `json:"book_id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"created_at,omitempty"` // Harvest timestamp, nil when unknown
	Grade     *Grade     `json:"grade,omitempty"`      // Externally supplied quality metadata
	ChapterID string     `json:"chapter_id,omitempty"`
	Status    CardStatus `json:"status,omitempty"`
}

// CardStatus tracks whether a card has been placed in a chapter
type CardStatus string

const (
	CardStatusStaging CardStatus = "staging" // Not yet assigned to a chapter
	CardStatusPlaced  CardStatus = "placed"  // Assigned to a chapter
)

// Grade is the quality metadata produced by the card-grading service.
// Every field is optional; consumers must handle absent data.
type Grade struct {
	Overall    *float64         `json:"overall,omitempty"`    // 1-5
	Chekhov    *ChekhovAnalysis `json:"chekhovAnalysis,omitempty"`
	Inflection *float64         `json:"inflection,omitempty"` // 1-5
}

// ChekhovAnalysis describes the narrative role a card plays
type ChekhovAnalysis struct {
	Function  NarrativeFunction `json:"function,omitempty"`
	Necessity *float64          `json:"necessity,omitempty"` // 0-1
}

// NarrativeFunction classifies what a card does for the story
type NarrativeFunction string

const (
	FunctionSetup            NarrativeFunction = "setup"
	FunctionPayoff           NarrativeFunction = "payoff"
	FunctionCharacterization NarrativeFunction = "characterization"
	FunctionWorldbuilding    NarrativeFunction = "worldbuilding"
	FunctionTransition       NarrativeFunction = "transition"
)

// Valid reports whether f is one of the known narrative functions
func (f NarrativeFunction) Valid() bool {
	switch f {
	case FunctionSetup, FunctionPayoff, FunctionCharacterization, FunctionWorldbuilding, FunctionTransition:
		return true
	}
	return false
}

// OverallOr returns the card's overall grade, or def when the card is ungraded
func (c Card) OverallOr(def float64) float64 {
	if c.Grade == nil || c.Grade.Overall == nil {
		return def
	}
	return *c.Grade.Overall
}

// Function returns the card's narrative function, or "" when absent
func (c Card) Function() NarrativeFunction {
	if c.Grade == nil || c.Grade.Chekhov == nil {
		return ""
	}
	return c.Grade.Chekhov.Function
}

// Chapter is a chapter of the book, ordered by Position
type Chapter struct {
	ID                string `json:"id"`
	BookID            string `json:"book_id,omitempty"`
	Title             string `json:"title"`
	DraftInstructions string `json:"draft_instructions,omitempty"`
	Position          int    `json:"position"`
}

// Float64 returns a pointer to v, for building optional grade fields
func Float64(v float64) *float64 {
	return &v
}
