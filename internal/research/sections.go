package research

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/quire/internal/lexical"
	"github.com/ppiankov/quire/internal/model"
)

const (
	minArcCompleteness = 0.5
	maxThemeSections   = 6
	wordsPerCardWord   = 1.5
)

var phaseTitles = map[model.PhaseType]string{
	model.PhaseSetup:       "Introduction",
	model.PhaseDevelopment: "Development",
	model.PhaseClimax:      "Turning Point",
	model.PhaseResolution:  "Conclusion",
}

// SuggestSections proposes outline sections, one per Main Narrative phase
// when that arc is developed enough, otherwise one per top theme.
func SuggestSections(themes []model.Theme, arcs []model.NarrativeArc, cards []model.Card) []model.SuggestedSection {
	words := make(map[string]int, len(cards))
	for _, c := range cards {
		words[c.ID] = lexical.WordCount(c.Content)
	}

	for _, a := range arcs {
		if a.Name == MainArcName && a.Completeness >= minArcCompleteness {
			return arcSections(a, themes, words)
		}
	}
	return themeSections(themes, words)
}

func arcSections(arc model.NarrativeArc, themes []model.Theme, words map[string]int) []model.SuggestedSection {
	sections := make([]model.SuggestedSection, 0, len(arc.Phases))
	for i, p := range arc.Phases {
		title := phaseTitles[p.Type]
		sections = append(sections, model.SuggestedSection{
			Title:              title,
			Description:        fmt.Sprintf("%s phase of the %s (%d cards)", title, arc.Name, len(p.CardIDs)),
			ThemeIDs:           themesTouching(p.CardIDs, themes),
			CardIDs:            p.CardIDs,
			Order:              i + 1,
			EstimatedWordCount: estimateWords(p.CardIDs, words),
			Confidence:         clamp(p.Strength),
		})
	}
	return sections
}

func themeSections(themes []model.Theme, words map[string]int) []model.SuggestedSection {
	top := themes
	if len(top) > maxThemeSections {
		top = top[:maxThemeSections]
	}
	ordered := append([]model.Theme(nil), top...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return functionRank(ordered[i].NarrativeFunction) < functionRank(ordered[j].NarrativeFunction)
	})

	sections := make([]model.SuggestedSection, 0, len(ordered))
	for i, t := range ordered {
		sections = append(sections, model.SuggestedSection{
			Title:              t.Name,
			Description:        fmt.Sprintf("Explores %s across %d cards", joinKeywords(t.Keywords), len(t.CardIDs)),
			ThemeIDs:           []string{t.ID},
			CardIDs:            t.CardIDs,
			Order:              i + 1,
			EstimatedWordCount: estimateWords(t.CardIDs, words),
			Confidence:         clamp(t.Strength),
		})
	}
	return sections
}

// functionRank sorts setup themes first and payoff themes last
func functionRank(f model.NarrativeFunction) int {
	switch f {
	case model.FunctionSetup:
		return 0
	case model.FunctionPayoff:
		return 2
	default:
		return 1
	}
}

func themesTouching(cardIDs []string, themes []model.Theme) []string {
	in := lexical.NewSet(cardIDs...)
	out := []string{}
	for _, t := range themes {
		if lexical.CountIn(t.CardIDs, in) > 0 {
			out = append(out, t.ID)
		}
	}
	return out
}

func estimateWords(cardIDs []string, words map[string]int) int {
	sum := 0
	for _, id := range cardIDs {
		sum += words[id]
	}
	return int(math.Round(float64(sum) * wordsPerCardWord))
}

func joinKeywords(keywords []string) string {
	switch len(keywords) {
	case 0:
		return "this theme"
	case 1:
		return keywords[0]
	}
	out := keywords[0]
	for _, k := range keywords[1 : len(keywords)-1] {
		out += ", " + k
	}
	return out + " and " + keywords[len(keywords)-1]
}
