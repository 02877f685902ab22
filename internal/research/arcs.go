package research

import (
	"fmt"
	"sort"

	"github.com/ppiankov/quire/internal/lexical"
	"github.com/ppiankov/quire/internal/model"
)

const (
	MainArcName     = "Main Narrative"
	TemporalArcName = "Temporal Arc"

	canonicalPhases = 4 // setup, development, climax, resolution
	minArcCards     = 2
)

// DetectArcs builds the Main Narrative arc from narrative functions and,
// independently, a Temporal arc from harvest timestamps.
func DetectArcs(cards []model.Card, cfg model.ResearchConfig) []model.NarrativeArc {
	var arcs []model.NarrativeArc

	if arc, ok := mainArc(cards, cfg); ok {
		arcs = append(arcs, arc)
	}
	if arc, ok := temporalArc(cards, cfg); ok {
		arcs = append(arcs, arc)
	}

	for i := range arcs {
		arcs[i].ID = fmt.Sprintf("arc-%d", i+1)
	}
	if arcs == nil {
		arcs = []model.NarrativeArc{}
	}
	return arcs
}

// phaseOf classifies a card; cards without a known function are transitions
func phaseOf(c model.Card) model.PhaseType {
	switch c.Function() {
	case model.FunctionSetup:
		return model.PhaseSetup
	case model.FunctionPayoff:
		return model.PhaseResolution
	default:
		return model.PhaseDevelopment
	}
}

func mainArc(cards []model.Card, cfg model.ResearchConfig) (model.NarrativeArc, bool) {
	byPhase := make(map[model.PhaseType][]string)
	for _, c := range cards {
		p := phaseOf(c)
		byPhase[p] = append(byPhase[p], c.ID)
	}

	norms := []struct {
		phase model.PhaseType
		norm  int
	}{
		{model.PhaseSetup, cfg.ArcSetupNorm},
		{model.PhaseDevelopment, cfg.ArcDevelopmentNorm},
		{model.PhaseResolution, cfg.ArcResolutionNorm},
	}

	arc := model.NarrativeArc{Name: MainArcName}
	var total float64
	for _, n := range norms {
		ids := byPhase[n.phase]
		if len(ids) == 0 {
			continue
		}
		strength := ratio(len(ids), n.norm)
		arc.Phases = append(arc.Phases, model.ArcPhase{
			Type:     n.phase,
			CardIDs:  ids,
			Strength: strength,
		})
		arc.CardIDs = append(arc.CardIDs, ids...)
		total += strength
	}

	if len(arc.CardIDs) < minArcCards {
		return model.NarrativeArc{}, false
	}

	// (phases/4) * mean strength reduces to sum/4, so adding cards never
	// lowers completeness.
	arc.Completeness = clamp(total / canonicalPhases)
	return arc, true
}

func temporalArc(cards []model.Card, cfg model.ResearchConfig) (model.NarrativeArc, bool) {
	var dated []model.Card
	for _, c := range cards {
		if c.CreatedAt != nil {
			dated = append(dated, c)
		}
	}
	if len(dated) < cfg.TemporalMinCards || len(dated) < 3 {
		return model.NarrativeArc{}, false
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].CreatedAt.Before(*dated[j].CreatedAt)
	})

	n := len(dated)
	early, middle, late := dated[:n/3], dated[n/3:2*n/3], dated[2*n/3:]

	earlyWords := topWordSet(early, cfg)
	lateWords := topWordSet(late, cfg)
	if lexical.Intersection(earlyWords, lateWords) < cfg.TemporalOverlapMin {
		return model.NarrativeArc{}, false
	}

	strength := clamp(cfg.TemporalStrength)
	return model.NarrativeArc{
		Name: TemporalArcName,
		Phases: []model.ArcPhase{
			{Type: model.PhaseSetup, CardIDs: ids(early), Strength: strength},
			{Type: model.PhaseDevelopment, CardIDs: ids(middle), Strength: strength},
			{Type: model.PhaseResolution, CardIDs: ids(late), Strength: strength},
		},
		CardIDs:      ids(dated),
		Completeness: clamp(cfg.TemporalCompletion),
	}, true
}

func topWordSet(cards []model.Card, cfg model.ResearchConfig) lexical.Set {
	texts := make([]string, len(cards))
	for i, c := range cards {
		texts[i] = c.Content
	}
	set := lexical.NewSet()
	for _, w := range lexical.TopWords(texts, cfg.KeywordMinLength, cfg.TemporalTopKeywords) {
		set[w.Word] = struct{}{}
	}
	return set
}
