package model

// OutlineItem is one line of an outline
type OutlineItem struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

// OutlineSection is the detail behind a level-1 outline item
type OutlineSection struct {
	Title      string        `json:"title" yaml:"title"`
	ItemIndex  int           `json:"item_index" yaml:"item_index"`
	ThemeIDs   []string      `json:"theme_ids" yaml:"theme_ids"`
	CardIDs    []string      `json:"card_ids" yaml:"card_ids"`
	Confidence float64       `json:"confidence" yaml:"confidence"`
	Source     SectionSource `json:"source" yaml:"source"`
}

// SectionSource says where an outline section came from
type SectionSource string

const (
	SourceSuggested SectionSource = "suggested" // From a research suggested section
	SourceTheme     SectionSource = "theme"     // Added from an uncovered theme
)

// OutlineStructure is the final bounded, ordered outline of a book
type OutlineStructure struct {
	Items      []OutlineItem    `json:"items" yaml:"items"`
	Depth      int              `json:"depth" yaml:"depth"`
	Confidence float64          `json:"confidence" yaml:"confidence"` // 0-1
	Sections   []OutlineSection `json:"sections,omitempty" yaml:"sections,omitempty"`

	// ItemCardAssignments maps an item index to the cards placed under it.
	// Persisted by the caller; the orderer honours it when present.
	ItemCardAssignments map[int][]string `json:"item_card_assignments,omitempty" yaml:"item_card_assignments,omitempty"`
}

// OrderedSection is the drafting-time view of one outline item
type OrderedSection struct {
	Title           string   `json:"title"`
	OutlineItemPath string   `json:"outline_item_path"` // e.g. "2.1"
	Cards           []Card   `json:"cards"`
	KeyPassageIDs   []string `json:"key_passage_ids"`
}
