package outline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/quire/internal/lexical"
	"github.com/ppiankov/quire/internal/model"
	"github.com/ppiankov/quire/internal/research"
)

// Relevance weights for matching a card to an outline item
const (
	themeBoost          = 0.2
	themeItemOverlapMin = 0.3
	titleWeight         = 0.3
	defaultOverall      = 3.0
)

// Orderer sequences cards under outline items for drafting
type Orderer struct {
	cfg model.OutlineConfig
}

// NewOrderer creates a new card orderer
func NewOrderer(cfg model.OutlineConfig) *Orderer {
	return &Orderer{cfg: cfg}
}

// Order returns one section per outline item with its matching cards,
// best graded first. Research may be nil, in which case no theme boost
// applies and key passages are judged from the cards' grades.
func (o *Orderer) Order(outline *model.OutlineStructure, r *model.Research, cards []model.Card) []model.OrderedSection {
	if outline == nil {
		return []model.OrderedSection{}
	}

	byID := make(map[string]model.Card, len(cards))
	sets := make(map[string]lexical.Set, len(cards))
	titles := make(map[string]lexical.Set, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
		sets[c.ID] = lexical.KeywordSet(c.Content, lexical.DefaultMinLength)
		titles[c.ID] = lexical.KeywordSet(c.Title, lexical.DefaultMinLength)
	}

	cardThemes := make(map[string][]lexical.Set)
	keyPassages := make(map[string]bool)
	if r != nil {
		for _, t := range r.Themes {
			kw := lexical.NewSet(t.Keywords...)
			for _, id := range t.CardIDs {
				cardThemes[id] = append(cardThemes[id], kw)
			}
		}
		for _, m := range r.SourceMappings {
			keyPassages[m.CardID] = m.IsKeyPassage
		}
	}
	isKey := func(c model.Card) bool {
		if v, ok := keyPassages[c.ID]; ok {
			return v
		}
		return research.IsKeyPassage(c)
	}

	paths := itemPaths(outline.Items)
	sections := make([]model.OrderedSection, 0, len(outline.Items))

	for i, item := range outline.Items {
		var matched []model.Card

		if assigned, ok := outline.ItemCardAssignments[i]; o.cfg.UseAssignments && ok && len(assigned) > 0 {
			for _, id := range assigned {
				if c, ok := byID[id]; ok {
					matched = append(matched, c)
				}
			}
		} else {
			itemSet := lexical.KeywordSet(item.Text, lexical.DefaultMinLength)
			for _, c := range cards {
				score := relevance(itemSet, sets[c.ID], titles[c.ID], cardThemes[c.ID])
				if score >= o.cfg.MinRelevance && score > 0 {
					matched = append(matched, c)
				}
			}
		}

		sortForDrafting(matched)

		section := model.OrderedSection{
			Title:           item.Text,
			OutlineItemPath: paths[i],
			Cards:           []model.Card{},
			KeyPassageIDs:   []string{},
		}
		for _, c := range matched {
			section.Cards = append(section.Cards, c)
			if isKey(c) {
				section.KeyPassageIDs = append(section.KeyPassageIDs, c.ID)
			}
		}
		sections = append(sections, section)
	}
	return sections
}

// relevance scores a card against an outline item: content overlap, a
// boost when one of the card's themes matches the item, and title overlap
func relevance(item, content, title lexical.Set, themes []lexical.Set) float64 {
	score := lexical.Overlap(item, content)
	for _, kw := range themes {
		if lexical.Overlap(kw, item) > themeItemOverlapMin {
			score += themeBoost
			break
		}
	}
	score += titleWeight * lexical.Overlap(item, title)
	return clamp(score)
}

// sortForDrafting orders cards by grade descending, then oldest first with
// undated cards last
func sortForDrafting(cards []model.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		gi, gj := cards[i].OverallOr(defaultOverall), cards[j].OverallOr(defaultOverall)
		if gi != gj {
			return gi > gj
		}
		a, b := cards[i].CreatedAt, cards[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}

// itemPaths numbers outline items hierarchically: "1", "1.1", "1.2", "2"
func itemPaths(items []model.OutlineItem) []string {
	paths := make([]string, len(items))
	var counters []int
	for i, item := range items {
		level := max(item.Level, 1)
		for len(counters) < level {
			counters = append(counters, 0)
		}
		counters = counters[:level]
		counters[level-1]++

		parts := make([]string, level)
		for j, n := range counters {
			parts[j] = strconv.Itoa(n)
		}
		paths[i] = strings.Join(parts, ".")
	}
	return paths
}
