package outline

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/ppiankov/quire/internal/model"
)

func day(month time.Month, d int) *time.Time {
	t := time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func testResearch() *model.Research {
	return &model.Research{
		Themes: []model.Theme{
			{ID: "theme-1", Name: "Harbor & Storm", Keywords: []string{"harbor", "storm"}, CardIDs: []string{"a", "b", "c"}, Strength: 0.6, NarrativeFunction: model.FunctionSetup},
			{ID: "theme-2", Name: "Letters & Daughter", Keywords: []string{"letters", "daughter"}, CardIDs: []string{"d", "e"}, Strength: 0.4, NarrativeFunction: model.FunctionPayoff},
			{ID: "theme-3", Name: "Orchard", Keywords: []string{"orchard"}, CardIDs: []string{"f"}, Strength: 0.2},
		},
		SuggestedSections: []model.SuggestedSection{
			{Title: "Beginnings", ThemeIDs: []string{"theme-1"}, CardIDs: []string{"a", "b"}, Order: 1, Confidence: 0.8},
			{Title: "Echoes", ThemeIDs: []string{"theme-1"}, CardIDs: []string{"b"}, Order: 2, Confidence: 0.5},
		},
	}
}

func testCards() []model.Card {
	return []model.Card{
		{ID: "a", Content: "harbor storm", CreatedAt: day(3, 1)},
		{ID: "b", Content: "harbor storm pier", CreatedAt: day(3, 2)},
		{ID: "c", Content: "storm"},
		{ID: "d", Content: "letters daughter", CreatedAt: day(1, 1)},
		{ID: "e", Content: "daughter letters", CreatedAt: day(1, 2)},
		{ID: "f", Content: "orchard"},
	}
}

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator(model.DefaultConfig().Outline)
	out := g.Generate(testResearch(), testCards())

	want := []model.OutlineItem{
		{Level: 1, Text: "Beginnings"},
		{Level: 2, Text: "Harbor & Storm"},
		{Level: 1, Text: "Letters & Daughter"},
	}
	if !reflect.DeepEqual(out.Items, want) {
		t.Fatalf("Expected %v, got %v", want, out.Items)
	}
	if out.Depth != 2 {
		t.Errorf("Expected depth 2, got %d", out.Depth)
	}
	if math.Abs(out.Confidence-0.6) > 1e-9 {
		t.Errorf("Expected confidence 0.6, got %f", out.Confidence)
	}
	if !reflect.DeepEqual(out.ItemCardAssignments[0], []string{"a", "b"}) {
		t.Errorf("Unexpected assignments for item 0: %v", out.ItemCardAssignments[0])
	}
	if !reflect.DeepEqual(out.ItemCardAssignments[2], []string{"d", "e"}) {
		t.Errorf("Unexpected assignments for item 2: %v", out.ItemCardAssignments[2])
	}
	if out.Sections[1].Source != model.SourceTheme {
		t.Errorf("Expected second section to come from a theme, got %s", out.Sections[1].Source)
	}
}

func TestGenerator_CardsClaimedOnce(t *testing.T) {
	g := NewGenerator(model.DefaultConfig().Outline)
	out := g.Generate(testResearch(), testCards())

	seen := make(map[string]bool)
	for _, s := range out.Sections {
		for _, id := range s.CardIDs {
			if seen[id] {
				t.Errorf("Card %s claimed by more than one section", id)
			}
			seen[id] = true
		}
	}
}

func TestGenerator_RejectsOverlappingTheme(t *testing.T) {
	r := testResearch()
	r.SuggestedSections = []model.SuggestedSection{
		{Title: "Beginnings", CardIDs: []string{"a", "b", "c"}, Confidence: 0.8},
	}
	r.Themes = append(r.Themes, model.Theme{
		ID: "theme-4", Name: "Storm Again", CardIDs: []string{"a", "b", "c", "x", "y"}, Strength: 0.9,
	})

	out := NewGenerator(model.DefaultConfig().Outline).Generate(r, testCards())
	for _, s := range out.Sections {
		if s.Title == "Storm Again" {
			t.Error("Expected a theme sharing 60% of its cards with a section to be rejected")
		}
	}
}

func TestGenerator_MaxSections(t *testing.T) {
	cfg := model.DefaultConfig().Outline
	cfg.MaxSections = 1

	out := NewGenerator(cfg).Generate(testResearch(), testCards())
	if len(out.Sections) != 1 || out.Sections[0].Title != "Beginnings" {
		t.Errorf("Expected only the most confident section, got %+v", out.Sections)
	}
}

func TestGenerator_SetupFirstPayoffLast(t *testing.T) {
	r := testResearch()
	r.Arcs = []model.NarrativeArc{{ID: "arc-1", Name: "Main Narrative"}}
	r.SuggestedSections = []model.SuggestedSection{
		{Title: "Finale", ThemeIDs: []string{"theme-2"}, CardIDs: []string{"d", "e"}, Confidence: 0.7},
		{Title: "Beginnings", ThemeIDs: []string{"theme-1"}, CardIDs: []string{"a", "b"}, Confidence: 0.8},
	}

	// Payoff material (d, e) was harvested before setup material (a, b)
	cards := testCards()

	out := NewGenerator(model.DefaultConfig().Outline).Generate(r, cards)
	if len(out.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(out.Sections))
	}
	if out.Sections[0].Title != "Beginnings" || out.Sections[1].Title != "Finale" {
		t.Errorf("Expected setup before payoff, got %s then %s", out.Sections[0].Title, out.Sections[1].Title)
	}
	if out.Items[0].Text != "Beginnings" {
		t.Errorf("Expected items to follow section order, got %s", out.Items[0].Text)
	}

	cfg := model.DefaultConfig().Outline
	cfg.PreferArcStructure = false
	plain := NewGenerator(cfg).Generate(r, cards)
	if plain.Sections[0].Title != "Finale" {
		t.Errorf("Expected claim order without arc ordering, got %s", plain.Sections[0].Title)
	}
}

func TestGenerator_Empty(t *testing.T) {
	out := NewGenerator(model.DefaultConfig().Outline).Generate(&model.Research{}, nil)
	if len(out.Items) != 0 || out.Confidence != 0 || out.Depth != 0 {
		t.Errorf("Expected empty outline, got %+v", out)
	}
}

func TestItemPaths(t *testing.T) {
	items := []model.OutlineItem{
		{Level: 1, Text: "One"},
		{Level: 2, Text: "One A"},
		{Level: 2, Text: "One B"},
		{Level: 1, Text: "Two"},
		{Level: 2, Text: "Two A"},
	}
	want := []string{"1", "1.1", "1.2", "2", "2.1"}
	if got := itemPaths(items); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOrderer_HonoursAssignments(t *testing.T) {
	outline := &model.OutlineStructure{
		Items:               []model.OutlineItem{{Level: 1, Text: "Unrelated words"}},
		ItemCardAssignments: map[int][]string{0: {"a", "b"}},
	}
	cards := []model.Card{
		{ID: "a", Content: "harbor", Grade: &model.Grade{Overall: model.Float64(3)}},
		{ID: "b", Content: "storm", Grade: &model.Grade{Overall: model.Float64(5)}},
	}

	sections := NewOrderer(model.DefaultConfig().Outline).Order(outline, nil, cards)
	if len(sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(sections))
	}
	if sections[0].Cards[0].ID != "b" || sections[0].Cards[1].ID != "a" {
		t.Errorf("Expected best graded card first, got %s, %s", sections[0].Cards[0].ID, sections[0].Cards[1].ID)
	}
	if !reflect.DeepEqual(sections[0].KeyPassageIDs, []string{"b"}) {
		t.Errorf("Expected b as key passage, got %v", sections[0].KeyPassageIDs)
	}
	if sections[0].OutlineItemPath != "1" {
		t.Errorf("Expected path 1, got %s", sections[0].OutlineItemPath)
	}
}

func TestOrderer_RelevanceMatching(t *testing.T) {
	cfg := model.DefaultConfig().Outline
	cfg.UseAssignments = false

	outline := &model.OutlineStructure{
		Items: []model.OutlineItem{{Level: 1, Text: "Harbor storms"}},
	}
	cards := []model.Card{
		{ID: "x", Content: "harbor storms battered the pier"},
		{ID: "y", Content: "orchard apples"},
		{ID: "z", Content: "harbor lantern", Grade: &model.Grade{Overall: model.Float64(4)}},
		{ID: "w", Content: "lantern keeper"},
	}
	r := &model.Research{
		Themes: []model.Theme{
			{ID: "theme-1", Keywords: []string{"harbor", "storms", "pier"}, CardIDs: []string{"w"}},
		},
	}

	sections := NewOrderer(cfg).Order(outline, r, cards)
	var got []string
	for _, c := range sections[0].Cards {
		got = append(got, c.ID)
	}

	// z is graded higher; x and w tie on the default grade and keep input order
	want := []string{"z", "x", "w"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestSortForDrafting_TieBreak(t *testing.T) {
	cards := []model.Card{
		{ID: "undated"},
		{ID: "late", CreatedAt: day(6, 1)},
		{ID: "early", CreatedAt: day(1, 1)},
	}
	sortForDrafting(cards)

	got := []string{cards[0].ID, cards[1].ID, cards[2].ID}
	want := []string{"early", "late", "undated"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
