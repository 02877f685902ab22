package research

import (
	"fmt"
	"strings"

	"github.com/ppiankov/quire/internal/model"
)

const (
	strongThemeStrength   = 0.8
	strongArcCompleteness = 0.7
	lowAvgGrade           = 3.0
	manyOrphans           = 3
	manyKeyPassages       = 3
)

var canonicalArcPhases = []model.PhaseType{
	model.PhaseSetup,
	model.PhaseDevelopment,
	model.PhaseResolution,
}

// AnalyzeCoverage reports weak spots and strong areas of the card pool
func AnalyzeCoverage(themes []model.Theme, arcs []model.NarrativeArc, mappings []model.SourceMapping, cfg model.ResearchConfig) ([]model.CoverageGap, []string) {
	gaps := []model.CoverageGap{}
	strong := []string{}

	if len(themes) < cfg.MinThemes {
		gaps = append(gaps, model.CoverageGap{
			Theme:           "themes",
			Description:     fmt.Sprintf("Only %d recurring themes found (expected at least %d)", len(themes), cfg.MinThemes),
			Severity:        model.GapModerate,
			SuggestedAction: "Harvest more material around the book's central subjects",
		})
	}

	for _, t := range themes {
		switch {
		case len(t.CardIDs) < cfg.MinCardsPerTheme:
			gaps = append(gaps, model.CoverageGap{
				Theme:           t.Name,
				Description:     fmt.Sprintf("Theme %q is supported by only %d cards", t.Name, len(t.CardIDs)),
				Severity:        model.GapModerate,
				SuggestedAction: "Add cards that develop this theme",
			})
		case t.AvgGrade < lowAvgGrade && len(t.CardIDs) >= 2:
			gaps = append(gaps, model.CoverageGap{
				Theme:           t.Name,
				Description:     fmt.Sprintf("Cards for %q average a grade of %.1f", t.Name, t.AvgGrade),
				Severity:        model.GapMinor,
				SuggestedAction: "Replace or revise the weakest cards for this theme",
			})
		case t.Strength >= strongThemeStrength:
			strong = append(strong, fmt.Sprintf("%s (%d cards)", t.Name, len(t.CardIDs)))
		}
	}

	for _, a := range arcs {
		var missing []string
		for _, p := range canonicalArcPhases {
			if _, ok := a.Phase(p); !ok {
				missing = append(missing, string(p))
			}
		}
		if len(missing) > 0 {
			severity := model.GapModerate
			if len(missing) >= 2 {
				severity = model.GapMajor
			}
			gaps = append(gaps, model.CoverageGap{
				Theme:           a.Name,
				Description:     fmt.Sprintf("%s is missing phases: %s", a.Name, strings.Join(missing, ", ")),
				Severity:        severity,
				SuggestedAction: fmt.Sprintf("Add cards that serve as %s", strings.Join(missing, " or ")),
			})
		}
		if a.Completeness >= strongArcCompleteness {
			strong = append(strong, fmt.Sprintf("%s is well developed", a.Name))
		}
	}

	var orphans, keyPassages int
	for _, m := range mappings {
		if len(m.Themes) == 0 {
			orphans++
		}
		if m.IsKeyPassage {
			keyPassages++
		}
	}

	if orphans > 0 {
		severity := model.GapMinor
		if orphans > manyOrphans {
			severity = model.GapModerate
		}
		gaps = append(gaps, model.CoverageGap{
			Theme:           "orphans",
			Description:     fmt.Sprintf("%d cards do not support any theme", orphans),
			Severity:        severity,
			SuggestedAction: "Review unmapped cards; cut them or harvest companions",
		})
	}

	if keyPassages == 0 {
		gaps = append(gaps, model.CoverageGap{
			Theme:           "key passages",
			Description:     "No key passages identified",
			Severity:        model.GapMajor,
			SuggestedAction: "Grade cards or harvest stronger anchor material",
		})
	} else if keyPassages >= manyKeyPassages {
		strong = append(strong, fmt.Sprintf("%d key passages", keyPassages))
	}

	return gaps, strong
}
