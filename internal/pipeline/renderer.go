package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/quire/internal/cluster"
	"github.com/ppiankov/quire/internal/model"
)

// Output formats understood by the renderer
const (
	FormatJSON     = "json"
	FormatMarkdown = "md"
	FormatYAML     = "yaml"
)

// Renderer writes pipeline results as JSON, YAML or Markdown
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes v as indented JSON
func (r *Renderer) RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// RenderYAML writes v as block-style YAML. Field names follow the JSON
// tags so both formats share one schema.
func (r *Renderer) RenderYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles inherited from JSON
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// ToFile renders into path, or stdout when path is "" or "-"
func (r *Renderer) ToFile(path string, render func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return render(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return render(f)
}

// RenderResearchMarkdown writes a research bundle as a Markdown report
func (r *Renderer) RenderResearchMarkdown(w io.Writer, res *model.Research) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Research: %s\n\n", res.BookID)
	fmt.Fprintf(&b, "- **Cards analyzed:** %d\n", res.TotalCards)
	fmt.Fprintf(&b, "- **Confidence:** %.0f%%\n", res.Confidence*100)
	fmt.Fprintf(&b, "- **Analyzed at:** %s\n", res.AnalyzedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- **Run:** `%s`\n\n", res.RunID)

	b.WriteString("## Themes\n\n")
	if len(res.Themes) == 0 {
		b.WriteString("_No themes found._\n\n")
	} else {
		b.WriteString("| Theme | Keywords | Cards | Strength | Avg grade | Function |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, t := range res.Themes {
			fmt.Fprintf(&b, "| %s | %s | %d | %.2f | %.1f | %s |\n",
				t.Name, strings.Join(t.Keywords, ", "), len(t.CardIDs), t.Strength, t.AvgGrade, orDash(string(t.NarrativeFunction)))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Narrative Arcs\n\n")
	if len(res.Arcs) == 0 {
		b.WriteString("_No arcs detected._\n\n")
	}
	for _, a := range res.Arcs {
		fmt.Fprintf(&b, "### %s (%.0f%% complete)\n\n", a.Name, a.Completeness*100)
		for _, ph := range a.Phases {
			fmt.Fprintf(&b, "- **%s** (%.2f): %s\n", ph.Type, ph.Strength, strings.Join(ph.CardIDs, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Coverage\n\n")
	if len(res.StrongAreas) > 0 {
		b.WriteString("**Strong areas**\n\n")
		for _, s := range res.StrongAreas {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
	if len(res.CoverageGaps) == 0 {
		b.WriteString("_No coverage gaps._\n\n")
	} else {
		b.WriteString("**Gaps**\n\n")
		for _, g := range res.CoverageGaps {
			fmt.Fprintf(&b, "- [%s] **%s**: %s. _%s_\n", g.Severity, g.Theme, g.Description, g.SuggestedAction)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Suggested Sections\n\n")
	if len(res.SuggestedSections) == 0 {
		b.WriteString("_No sections suggested._\n")
	}
	for _, s := range res.SuggestedSections {
		fmt.Fprintf(&b, "%d. **%s** (~%d words): %s\n", s.Order, s.Title, s.EstimatedWordCount, s.Description)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderOutlineMarkdown writes an outline as a nested Markdown list
func (r *Renderer) RenderOutlineMarkdown(w io.Writer, res *OutlineResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Outline: %s\n\n", res.BookID)
	fmt.Fprintf(&b, "_Depth %d, confidence %.0f%%_\n\n", res.Outline.Depth, res.Outline.Confidence*100)

	if len(res.Outline.Items) == 0 {
		b.WriteString("_No outline could be built from the current cards._\n")
	}
	for i, item := range res.Outline.Items {
		indent := strings.Repeat("  ", max(item.Level-1, 0))
		fmt.Fprintf(&b, "%s- %s", indent, item.Text)
		if cards := res.Outline.ItemCardAssignments[i]; len(cards) > 0 {
			fmt.Fprintf(&b, " _(%d cards)_", len(cards))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderDraftOrderMarkdown writes ordered sections with their cards
func (r *Renderer) RenderDraftOrderMarkdown(w io.Writer, bookID string, sections []model.OrderedSection) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Draft order: %s\n\n", bookID)
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s %s\n\n", s.OutlineItemPath, s.Title)
		if len(s.Cards) == 0 {
			b.WriteString("_No matching cards._\n\n")
			continue
		}
		key := make(map[string]bool, len(s.KeyPassageIDs))
		for _, id := range s.KeyPassageIDs {
			key[id] = true
		}
		for _, c := range s.Cards {
			marker := ""
			if key[c.ID] {
				marker = " ★"
			}
			fmt.Fprintf(&b, "- `%s`%s %s\n", c.ID, marker, excerpt(c))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderClustersMarkdown writes a clustering run
func (r *Renderer) RenderClustersMarkdown(w io.Writer, bookID string, res cluster.Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Clusters: %s\n\n", bookID)
	fmt.Fprintf(&b, "_%s mode, %d of %d cards clustered (%.0f%% unclustered)_\n\n",
		res.Mode, res.Stats.ClusteredCards, res.Stats.TotalCards, res.Stats.UnclusteredPercent)
	for _, c := range res.Clusters {
		fmt.Fprintf(&b, "- **%s** (%d cards, similarity %.2f): %s\n", c.Name, len(c.CardIDs), c.AvgSimilarity, strings.Join(c.CardIDs, ", "))
	}
	if len(res.Unclustered) > 0 {
		fmt.Fprintf(&b, "\n**Unclustered:** %s\n", strings.Join(res.Unclustered, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderAssignmentMarkdown writes an assignment batch
func (r *Renderer) RenderAssignmentMarkdown(w io.Writer, bookID string, batch model.AssignmentBatch) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Chapter assignments: %s\n\n", bookID)
	if batch.Error != "" {
		fmt.Fprintf(&b, "**Error:** %s\n", batch.Error)
	}
	applied := make(map[string]bool, len(batch.Applied))
	for _, id := range batch.Applied {
		applied[id] = true
	}
	for _, p := range batch.Proposals {
		status := ""
		if applied[p.CardID] {
			status = " (applied)"
		}
		fmt.Fprintf(&b, "- `%s` → `%s` %.0f%%%s: %s\n", p.CardID, p.SuggestedChapterID, p.Confidence*100, status, p.Reasoning)
		for _, alt := range p.Alternatives {
			fmt.Fprintf(&b, "  - or `%s` %.0f%%\n", alt.ChapterID, alt.Confidence*100)
		}
	}
	if len(batch.Unmatched) > 0 {
		fmt.Fprintf(&b, "\n**Unmatched:** %s\n", strings.Join(batch.Unmatched, ", "))
	}
	for _, id := range slices.Sorted(maps.Keys(batch.ApplyErrors)) {
		fmt.Fprintf(&b, "\n**Write-back failed** for `%s`: %s\n", id, batch.ApplyErrors[id])
	}

	_, err := io.WriteString(w, b.String())
	return err
}

const excerptLength = 80

func excerpt(c model.Card) string {
	if c.Title != "" {
		return c.Title
	}
	text := strings.Join(strings.Fields(c.Content), " ")
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}
	return string(runes[:excerptLength]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
