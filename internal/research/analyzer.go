// Package research turns a book's card pool into a Research bundle: themes,
// narrative arcs, per-card source mappings, coverage gaps and suggested
// outline sections. Every step is local and deterministic given the same
// cards and configuration; only RunID and AnalyzedAt vary between runs.
package research

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/quire/internal/model"
)

// Analyzer runs the research pipeline
type Analyzer struct {
	cfg model.ResearchConfig
	now func() time.Time
}

// NewAnalyzer creates a new research analyzer
func NewAnalyzer(cfg model.ResearchConfig) *Analyzer {
	return &Analyzer{cfg: cfg, now: time.Now}
}

// WithClock replaces the analyzer's time source
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze researches a snapshot of a book's cards
func (a *Analyzer) Analyze(bookID string, cards []model.Card) *model.Research {
	r := &model.Research{
		RunID:             uuid.NewString(),
		BookID:            bookID,
		Themes:            []model.Theme{},
		Arcs:              []model.NarrativeArc{},
		SourceMappings:    []model.SourceMapping{},
		CoverageGaps:      []model.CoverageGap{},
		StrongAreas:       []string{},
		SuggestedSections: []model.SuggestedSection{},
		TotalCards:        len(cards),
		AnalyzedAt:        a.now().UTC(),
	}

	if len(cards) == 0 {
		r.CoverageGaps = append(r.CoverageGaps, model.CoverageGap{
			Theme:           "all",
			Description:     "No cards to analyze",
			Severity:        model.GapMajor,
			SuggestedAction: "Harvest cards for this book before running research",
		})
		return r
	}

	r.Themes = ExtractThemes(cards, a.cfg)
	r.Arcs = DetectArcs(cards, a.cfg)
	r.SourceMappings = MapSources(cards, r.Themes, a.cfg)
	r.CoverageGaps, r.StrongAreas = AnalyzeCoverage(r.Themes, r.Arcs, r.SourceMappings, a.cfg)
	r.SuggestedSections = SuggestSections(r.Themes, r.Arcs, cards)
	r.Confidence = confidence(r)

	mustReferenceKnownCards(r, cards)
	return r
}

// confidence is the mean of card coverage, theme strength and the best arc
// completeness
func confidence(r *model.Research) float64 {
	if r.TotalCards == 0 {
		return 0
	}

	mapped := 0
	for _, m := range r.SourceMappings {
		if len(m.Themes) > 0 {
			mapped++
		}
	}
	coverage := float64(mapped) / float64(r.TotalCards)

	var themeStrength float64
	for _, t := range r.Themes {
		themeStrength += t.Strength
	}
	if len(r.Themes) > 0 {
		themeStrength /= float64(len(r.Themes))
	}

	var bestArc float64
	for _, a := range r.Arcs {
		if a.Completeness > bestArc {
			bestArc = a.Completeness
		}
	}

	return clamp((coverage + themeStrength + bestArc) / 3)
}

// mustReferenceKnownCards panics when any derived structure names a card
// outside the input set. That can only be a programming error.
func mustReferenceKnownCards(r *model.Research, cards []model.Card) {
	known := make(map[string]bool, len(cards))
	for _, c := range cards {
		known[c.ID] = true
	}
	check := func(where string, ids []string) {
		for _, id := range ids {
			if !known[id] {
				panic(fmt.Sprintf("research: %s references unknown card %q", where, id))
			}
		}
	}

	for _, t := range r.Themes {
		check("theme "+t.ID, t.CardIDs)
	}
	for _, a := range r.Arcs {
		check("arc "+a.ID, a.CardIDs)
		for _, p := range a.Phases {
			check("arc phase "+string(p.Type), p.CardIDs)
		}
	}
	for _, m := range r.SourceMappings {
		check("mapping", []string{m.CardID})
	}
	for _, s := range r.SuggestedSections {
		check("section "+s.Title, s.CardIDs)
	}
}

// IsFresh reports whether research cached at cachedAt may still be served
func IsFresh(cachedAt, now time.Time, ttl time.Duration) bool {
	if ttl <= 0 || cachedAt.IsZero() {
		return false
	}
	return now.Sub(cachedAt) < ttl
}

func ids(cards []model.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

// ratio returns min(n/norm, 1)
func ratio(n, norm int) float64 {
	if norm <= 0 {
		return clamp(float64(n))
	}
	return clamp(float64(n) / float64(norm))
}

func clamp(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
