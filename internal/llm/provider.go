package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/quire/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Brief generates outline prose with strict card citation
	Brief(ctx context.Context, req BriefRequest) (*BriefResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// BriefRequest contains the input for an outline brief
type BriefRequest struct {
	BookID  string
	Outline model.OutlineStructure

	// CardIDs is the STRICT allowlist of cards the LLM may cite as [card:ID]
	CardIDs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// BriefResponse contains the LLM's output
type BriefResponse struct {
	Text       string
	CitedCards []string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// StrictCitation rejects briefs citing cards outside the allowlist
	StrictCitation bool

	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Timeout:        30,
		StrictCitation: true,
		MaxTokens:      800,
	}
}

// maxPromptCards caps the allowlist printed into the prompt
const maxPromptCards = 40

// BuildPrompt constructs the default brief prompt
func BuildPrompt(bookID string, outline model.OutlineStructure, cardIDs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are describing the outline of a book in progress. The outline was built from the author's own research cards; you describe its shape, you do not change it.

CRITICAL RULES:
1. You MAY ONLY cite cards from this allowed list, written as [card:ID]:
%s

2. DO NOT invent cards, quotes, events or sources.
3. DO NOT reorder, add or remove sections. Describe them in the order given.
4. If a section has no cards, say that it still needs material.

Book: %s
Outline depth: %d
Outline confidence: %.0f%%

Outline:
`, joinCards(cardIDs), bookID, outline.Depth, outline.Confidence*100)

	for i, item := range outline.Items {
		indent := strings.Repeat("  ", max(item.Level-1, 0))
		fmt.Fprintf(&b, "%s- %s", indent, item.Text)
		if cards := outline.ItemCardAssignments[i]; len(cards) > 0 {
			fmt.Fprintf(&b, " (cards: %s)", strings.Join(cards, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nWrite one short paragraph per top-level section explaining what it covers and how it leads into the next.")
	return b.String()
}

func joinCards(ids []string) string {
	if len(ids) == 0 {
		return "(No cards available)"
	}
	var b strings.Builder
	for i, id := range ids {
		if i >= maxPromptCards {
			fmt.Fprintf(&b, "\n... and %d more cards", len(ids)-maxPromptCards)
			break
		}
		fmt.Fprintf(&b, "\n- %s", id)
	}
	return b.String()
}
