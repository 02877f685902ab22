package research

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/quire/internal/lexical"
	"github.com/ppiankov/quire/internal/model"
)

const (
	defaultAvgGrade  = 3.0
	minThemeKeywords = 2 // a card needs this many theme keywords to support it
)

// ExtractThemes derives ranked themes from keyword co-occurrence across the
// cards' full content.
func ExtractThemes(cards []model.Card, cfg model.ResearchConfig) []model.Theme {
	texts := make([]string, len(cards))
	sets := make([]lexical.Set, len(cards))
	for i, c := range cards {
		texts[i] = c.Content
		sets[i] = lexical.KeywordSet(c.Content, cfg.KeywordMinLength)
	}

	freq := lexical.WordFrequency(texts, cfg.KeywordMinLength)
	clusters := lexical.CoOccurrenceClusters(texts, cfg.KeywordMinLength, cfg.MinCooccurrence)

	var themes []model.Theme
	for _, wc := range clusters {
		keywords := topByFrequency(wc.Words, freq, cfg.TopKeywordsPerTheme)

		var relevant []model.Card
		for i, c := range cards {
			if lexical.CountIn(keywords, sets[i]) >= minThemeKeywords {
				relevant = append(relevant, c)
			}
		}
		if len(relevant) < cfg.MinCardsPerTheme || len(relevant) == 0 {
			continue
		}

		themes = append(themes, model.Theme{
			Name:              themeName(keywords),
			Keywords:          keywords,
			CardIDs:           ids(relevant),
			Strength:          ratio(len(relevant), cfg.ThemeStrengthNorm),
			AvgGrade:          avgGrade(relevant),
			NarrativeFunction: dominantFunction(relevant),
		})
	}

	sort.SliceStable(themes, func(i, j int) bool {
		return themes[i].Strength > themes[j].Strength
	})
	if cfg.MaxThemes > 0 && len(themes) > cfg.MaxThemes {
		themes = themes[:cfg.MaxThemes]
	}
	for i := range themes {
		themes[i].ID = fmt.Sprintf("theme-%d", i+1)
	}
	if themes == nil {
		themes = []model.Theme{}
	}
	return themes
}

// topByFrequency keeps the limit most frequent words, stable on ties
func topByFrequency(words []string, freq map[string]int, limit int) []string {
	ranked := append([]string(nil), words...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return freq[ranked[i]] > freq[ranked[j]]
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func themeName(keywords []string) string {
	n := len(keywords)
	if n > 2 {
		n = 2
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = lexical.Capitalize(keywords[i])
	}
	return strings.Join(parts, " & ")
}

func avgGrade(cards []model.Card) float64 {
	var sum float64
	n := 0
	for _, c := range cards {
		if c.Grade != nil && c.Grade.Overall != nil {
			sum += *c.Grade.Overall
			n++
		}
	}
	if n == 0 {
		return defaultAvgGrade
	}
	return sum / float64(n)
}

// dominantFunction returns the most common narrative function, first
// encountered on ties, or "" when no card carries one
func dominantFunction(cards []model.Card) model.NarrativeFunction {
	counts := make(map[model.NarrativeFunction]int)
	var order []model.NarrativeFunction
	for _, c := range cards {
		f := c.Function()
		if !f.Valid() {
			continue
		}
		if counts[f] == 0 {
			order = append(order, f)
		}
		counts[f]++
	}

	var best model.NarrativeFunction
	bestCount := 0
	for _, f := range order {
		if counts[f] > bestCount {
			best, bestCount = f, counts[f]
		}
	}
	return best
}
