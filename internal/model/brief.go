package model

import "time"

// OutlineBrief is optional LLM prose describing a finished outline.
// It is generated after the outline and never feeds back into it.
type OutlineBrief struct {
	Enabled        bool      `json:"enabled"`
	Provider       string    `json:"provider,omitempty"`
	Model          string    `json:"model,omitempty"`
	StrictCitation bool      `json:"strict_citation"`
	BriefMD        string    `json:"brief_md,omitempty"`
	CitedCards     []string  `json:"cited_cards,omitempty"`
	Warnings       []string  `json:"warnings,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}
