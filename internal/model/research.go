package model

import "time"

// Research is the cached analysis bundle for one book.
// It is recomputed as a whole; ids inside are only unique within one run.
type Research struct {
	RunID             string             `json:"run_id"`
	BookID            string             `json:"book_id,omitempty"`
	Themes            []Theme            `json:"themes"`
	Arcs              []NarrativeArc     `json:"arcs"`
	SourceMappings    []SourceMapping    `json:"source_mappings"`
	CoverageGaps      []CoverageGap      `json:"coverage_gaps"`
	StrongAreas       []string           `json:"strong_areas"`
	SuggestedSections []SuggestedSection `json:"suggested_sections"`
	TotalCards        int                `json:"total_cards"`
	Confidence        float64            `json:"confidence"` // 0-1
	AnalyzedAt        time.Time          `json:"analyzed_at"`
}

// Theme is a named keyword cluster plus the cards supporting it
type Theme struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Keywords          []string          `json:"keywords"`
	CardIDs           []string          `json:"card_ids"`
	Strength          float64           `json:"strength"` // 0-1
	AvgGrade          float64           `json:"avg_grade"`
	NarrativeFunction NarrativeFunction `json:"narrative_function,omitempty"`
}

// PhaseType names a phase of a narrative arc
type PhaseType string

const (
	PhaseSetup       PhaseType = "setup"
	PhaseDevelopment PhaseType = "development"
	PhaseClimax      PhaseType = "climax"
	PhaseResolution  PhaseType = "resolution"
)

// ArcPhase is one ordered phase of an arc
type ArcPhase struct {
	Type     PhaseType `json:"type"`
	CardIDs  []string  `json:"card_ids"`
	Strength float64   `json:"strength"` // 0-1
}

// NarrativeArc is an ordered sequence of phases spanning a subset of cards
type NarrativeArc struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Phases       []ArcPhase `json:"phases"`
	CardIDs      []string   `json:"card_ids"`
	Completeness float64    `json:"completeness"` // 0-1
}

// Phase returns the phase of the given type, if present
func (a NarrativeArc) Phase(t PhaseType) (ArcPhase, bool) {
	for _, p := range a.Phases {
		if p.Type == t {
			return p, true
		}
	}
	return ArcPhase{}, false
}

// NarrativePosition places a card within the book's chronology
type NarrativePosition string

const (
	PositionEarly  NarrativePosition = "early"
	PositionMiddle NarrativePosition = "middle"
	PositionLate   NarrativePosition = "late"
)

// SourceMapping records which themes a card supports
type SourceMapping struct {
	CardID            string             `json:"card_id"`
	Themes            []string           `json:"themes"`
	RelevanceScores   map[string]float64 `json:"relevance_scores"`
	NarrativePosition NarrativePosition  `json:"narrative_position,omitempty"`
	IsKeyPassage      bool               `json:"is_key_passage"`
}

// GapSeverity grades how much a coverage gap matters
type GapSeverity string

const (
	GapMinor    GapSeverity = "minor"
	GapModerate GapSeverity = "moderate"
	GapMajor    GapSeverity = "major"
)

// CoverageGap is a weak spot in the card pool
type CoverageGap struct {
	Theme           string      `json:"theme"`
	Description     string      `json:"description"`
	Severity        GapSeverity `json:"severity"`
	SuggestedAction string      `json:"suggested_action"`
}

// SuggestedSection is a proposed outline section derived from arcs or themes
type SuggestedSection struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	ThemeIDs           []string `json:"theme_ids"`
	CardIDs            []string `json:"card_ids"`
	Order              int      `json:"order"`
	EstimatedWordCount int      `json:"estimated_word_count"`
	Confidence         float64  `json:"confidence"` // Phase or theme strength backing the section
}
