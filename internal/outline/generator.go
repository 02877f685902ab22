// Package outline turns a Research bundle into a bounded, ordered outline
// and sequences cards under each outline item for drafting.
package outline

import (
	"sort"

	"github.com/ppiankov/quire/internal/lexical"
	"github.com/ppiankov/quire/internal/model"
)

// Ordering nudge that dwarfs any unix timestamp, forcing setup sections
// first and payoff sections last regardless of chronology.
const functionNudge = 1e12

const minThemeSectionCards = 2

// Generator builds outlines from research
type Generator struct {
	cfg model.OutlineConfig
}

// NewGenerator creates a new outline generator
func NewGenerator(cfg model.OutlineConfig) *Generator {
	return &Generator{cfg: cfg}
}

type draft struct {
	title      string
	themeIDs   []string
	cardIDs    []string
	confidence float64
	source     model.SectionSource
}

// Generate builds an outline. Every card is claimed by at most one section.
func (g *Generator) Generate(r *model.Research, cards []model.Card) *model.OutlineStructure {
	out := &model.OutlineStructure{
		Items:               []model.OutlineItem{},
		Sections:            []model.OutlineSection{},
		ItemCardAssignments: make(map[int][]string),
	}
	if r == nil {
		return out
	}

	drafts := g.claimSections(r)
	drafts = g.bound(drafts)
	if g.cfg.PreferArcStructure && len(r.Arcs) > 0 {
		drafts = narrativeOrder(drafts, r, cards)
	}

	themeNames := make(map[string]string, len(r.Themes))
	for _, t := range r.Themes {
		themeNames[t.ID] = t.Name
	}

	var sum float64
	for _, d := range drafts {
		idx := len(out.Items)
		out.Items = append(out.Items, model.OutlineItem{Level: 1, Text: d.title})
		out.ItemCardAssignments[idx] = d.cardIDs
		out.Depth = max(out.Depth, 1)

		for _, id := range d.themeIDs {
			name, ok := themeNames[id]
			if !ok || name == d.title {
				continue
			}
			out.Items = append(out.Items, model.OutlineItem{Level: 2, Text: name})
			out.Depth = 2
		}

		out.Sections = append(out.Sections, model.OutlineSection{
			Title:      d.title,
			ItemIndex:  idx,
			ThemeIDs:   d.themeIDs,
			CardIDs:    d.cardIDs,
			Confidence: d.confidence,
			Source:     d.source,
		})
		sum += d.confidence
	}

	if len(drafts) > 0 {
		out.Confidence = clamp(sum / float64(len(drafts)))
	}
	return out
}

// claimSections takes suggested sections in order, then adds uncovered
// themes that are strong enough and do not duplicate an existing section
func (g *Generator) claimSections(r *model.Research) []draft {
	claimed := make(map[string]bool)
	unused := func(ids []string) []string {
		var out []string
		for _, id := range ids {
			if !claimed[id] {
				out = append(out, id)
			}
		}
		return out
	}

	var drafts []draft
	for _, s := range r.SuggestedSections {
		free := unused(s.CardIDs)
		if len(free) == 0 {
			continue
		}
		for _, id := range free {
			claimed[id] = true
		}
		drafts = append(drafts, draft{
			title:      s.Title,
			themeIDs:   s.ThemeIDs,
			cardIDs:    free,
			confidence: clamp(s.Confidence),
			source:     model.SourceSuggested,
		})
	}

	for _, t := range r.Themes {
		free := unused(t.CardIDs)
		if len(free) < minThemeSectionCards || t.Strength < g.cfg.ThemeRelevanceThreshold {
			continue
		}
		if g.overlapsExisting(t.CardIDs, drafts) {
			continue
		}
		for _, id := range free {
			claimed[id] = true
		}
		drafts = append(drafts, draft{
			title:      t.Name,
			themeIDs:   []string{t.ID},
			cardIDs:    free,
			confidence: clamp(t.Strength),
			source:     model.SourceTheme,
		})
	}
	return drafts
}

func (g *Generator) overlapsExisting(cardIDs []string, drafts []draft) bool {
	themeCards := lexical.NewSet(cardIDs...)
	for _, d := range drafts {
		if lexical.Overlap(themeCards, lexical.NewSet(d.cardIDs...)) > g.cfg.MaxSectionOverlap {
			return true
		}
	}
	return false
}

// bound keeps the most confident sections, preserving their order
func (g *Generator) bound(drafts []draft) []draft {
	if g.cfg.MaxSections <= 0 || len(drafts) <= g.cfg.MaxSections {
		return drafts
	}

	idx := make([]int, len(drafts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return drafts[idx[a]].confidence > drafts[idx[b]].confidence
	})
	idx = idx[:g.cfg.MaxSections]
	sort.Ints(idx)

	kept := make([]draft, len(idx))
	for i, j := range idx {
		kept[i] = drafts[j]
	}
	return kept
}

// narrativeOrder sorts sections by average card timestamp, with setup
// sections pulled to the front and payoff sections pushed to the back
func narrativeOrder(drafts []draft, r *model.Research, cards []model.Card) []draft {
	byID := make(map[string]model.Card, len(cards))
	var latest float64
	for _, c := range cards {
		byID[c.ID] = c
		if c.CreatedAt != nil {
			latest = max(latest, float64(c.CreatedAt.Unix()))
		}
	}
	themeFn := make(map[string]model.NarrativeFunction, len(r.Themes))
	for _, t := range r.Themes {
		themeFn[t.ID] = t.NarrativeFunction
	}

	scores := make([]float64, len(drafts))
	for i, d := range drafts {
		var sum float64
		dated := 0
		hasSetup, hasPayoff := false, false

		for _, id := range d.cardIDs {
			c, ok := byID[id]
			if !ok {
				continue
			}
			if c.CreatedAt != nil {
				sum += float64(c.CreatedAt.Unix())
				dated++
			}
			switch cardFunction(c, d.themeIDs, themeFn) {
			case model.FunctionSetup:
				hasSetup = true
			case model.FunctionPayoff:
				hasPayoff = true
			}
		}

		score := latest
		if dated > 0 {
			score = sum / float64(dated)
		}
		if hasSetup {
			score -= functionNudge
		}
		if hasPayoff {
			score += functionNudge
		}
		scores[i] = score
	}

	idx := make([]int, len(drafts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] < scores[idx[b]]
	})

	ordered := make([]draft, len(drafts))
	for i, j := range idx {
		ordered[i] = drafts[j]
	}
	return ordered
}

// cardFunction is the card's graded function, falling back to the function
// of the section's first theme that has one
func cardFunction(c model.Card, themeIDs []string, themeFn map[string]model.NarrativeFunction) model.NarrativeFunction {
	if f := c.Function(); f.Valid() {
		return f
	}
	for _, id := range themeIDs {
		if f := themeFn[id]; f != "" {
			return f
		}
	}
	return ""
}

func clamp(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
