package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/quire/internal/model"
)

// Briefer wraps a provider and turns its output into a model.OutlineBrief.
// Provider failures degrade into warnings; they never fail the outline.
type Briefer struct {
	provider Provider
	config   Config
	now      func() time.Time
}

// NewBriefer creates a briefer. An empty provider yields a disabled briefer.
func NewBriefer(config Config) (*Briefer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Briefer{provider: provider, config: config, now: time.Now}, nil
}

// NewBrieferWithProvider creates a briefer over an existing provider
func NewBrieferWithProvider(provider Provider, config Config) *Briefer {
	return &Briefer{provider: provider, config: config, now: time.Now}
}

// IsEnabled reports whether a provider is configured
func (b *Briefer) IsEnabled() bool {
	return b != nil && b.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (b *Briefer) ProviderName() string {
	if !b.IsEnabled() {
		return ""
	}
	return b.provider.Name()
}

// Generate produces a brief for the outline. It returns nil when disabled.
func (b *Briefer) Generate(ctx context.Context, bookID string, outline *model.OutlineStructure) (*model.OutlineBrief, error) {
	if !b.IsEnabled() || outline == nil {
		return nil, nil
	}

	brief := &model.OutlineBrief{
		Enabled:        true,
		Provider:       b.provider.Name(),
		Model:          b.config.Model,
		StrictCitation: b.config.StrictCitation,
		GeneratedAt:    b.now().UTC(),
	}

	if !b.provider.IsAvailable(ctx) {
		brief.Enabled = false
		brief.Warnings = append(brief.Warnings,
			fmt.Sprintf("Provider %s is not available (check API key or endpoint)", brief.Provider))
		return brief, nil
	}

	cardIDs := OutlineCardIDs(outline)
	resp, err := b.provider.Brief(ctx, BriefRequest{
		BookID:    bookID,
		Outline:   *outline,
		CardIDs:   cardIDs,
		Model:     b.config.Model,
		MaxTokens: b.config.MaxTokens,
	})
	if err != nil {
		brief.Warnings = append(brief.Warnings, fmt.Sprintf("Brief generation failed: %v", err))
		return brief, nil
	}

	brief.BriefMD = resp.Text
	brief.CitedCards = resp.CitedCards
	if resp.Model != "" {
		brief.Model = resp.Model
	}
	brief.Warnings = append(brief.Warnings,
		fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
		fmt.Sprintf("Verified %d card citations", len(resp.CitedCards)),
	)
	return brief, nil
}

// OutlineCardIDs collects every card placed in the outline, sections first
// and then item assignments in item order.
func OutlineCardIDs(outline *model.OutlineStructure) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, s := range outline.Sections {
		for _, id := range s.CardIDs {
			add(id)
		}
	}

	items := make([]int, 0, len(outline.ItemCardAssignments))
	for i := range outline.ItemCardAssignments {
		items = append(items, i)
	}
	sort.Ints(items)
	for _, i := range items {
		for _, id := range outline.ItemCardAssignments[i] {
			add(id)
		}
	}
	return ids
}

// RenderSeparateMarkdown renders a brief as its own markdown document
func RenderSeparateMarkdown(brief *model.OutlineBrief) string {
	if brief == nil || !brief.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Outline Brief\n\n")
	b.WriteString("> **GENERATED CONTENT.** This text was written by a language model from the outline below it.\n")
	b.WriteString("> The outline and card order were determined independently; nothing here changed them.\n\n")

	fmt.Fprintf(&b, "- **Provider:** %s\n", brief.Provider)
	if brief.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", brief.Model)
	}
	fmt.Fprintf(&b, "- **Strict Citation Mode:** %t\n\n", brief.StrictCitation)

	if brief.BriefMD == "" {
		b.WriteString("_No brief generated._\n")
	} else {
		b.WriteString(brief.BriefMD)
		b.WriteString("\n")
	}

	if len(brief.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range brief.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
