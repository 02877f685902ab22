package research

import (
	"sort"

	"github.com/ppiankov/quire/internal/lexical"
	"github.com/ppiankov/quire/internal/model"
)

// Key passage thresholds
const (
	keyOverall    = 4.0
	keyNecessity  = 0.7
	keyInflection = 4.0
)

// MapSources assigns every card to the themes it supports. Mappings come
// back in chronological order, undated cards last.
func MapSources(cards []model.Card, themes []model.Theme, cfg model.ResearchConfig) []model.SourceMapping {
	sorted := SortChronological(cards)

	themeSets := make([]lexical.Set, len(themes))
	for i, t := range themes {
		themeSets[i] = lexical.NewSet(t.Keywords...)
	}

	mappings := make([]model.SourceMapping, 0, len(sorted))
	for i, c := range sorted {
		cardSet := lexical.KeywordSet(c.Content, cfg.KeywordMinLength)

		m := model.SourceMapping{
			CardID:            c.ID,
			Themes:            []string{},
			RelevanceScores:   make(map[string]float64),
			NarrativePosition: positionOf(i, len(sorted)),
			IsKeyPassage:      IsKeyPassage(c),
		}
		for j, t := range themes {
			rel := clamp(lexical.Overlap(themeSets[j], cardSet))
			if rel > cfg.MinRelevance {
				m.Themes = append(m.Themes, t.ID)
				m.RelevanceScores[t.ID] = rel
			}
		}
		mappings = append(mappings, m)
	}
	return mappings
}

// SortChronological returns cards ordered by harvest time. Undated cards go
// last and equal timestamps keep input order.
func SortChronological(cards []model.Card) []model.Card {
	sorted := append([]model.Card(nil), cards...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].CreatedAt, sorted[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return sorted
}

func positionOf(i, n int) model.NarrativePosition {
	switch i * 3 / n {
	case 0:
		return model.PositionEarly
	case 1:
		return model.PositionMiddle
	default:
		return model.PositionLate
	}
}

// IsKeyPassage reports whether the grading signals flag a card as
// especially important
func IsKeyPassage(c model.Card) bool {
	g := c.Grade
	if g == nil {
		return false
	}
	if g.Overall != nil && *g.Overall >= keyOverall {
		return true
	}
	if g.Chekhov != nil && g.Chekhov.Necessity != nil && *g.Chekhov.Necessity >= keyNecessity {
		return true
	}
	return g.Inflection != nil && *g.Inflection >= keyInflection
}
