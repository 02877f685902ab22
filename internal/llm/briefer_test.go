package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/quire/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *BriefResponse
	err       error
	lastReq   BriefRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Brief(ctx context.Context, req BriefRequest) (*BriefResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func testOutline() *model.OutlineStructure {
	return &model.OutlineStructure{
		Items: []model.OutlineItem{
			{Level: 1, Text: "Introduction"},
			{Level: 2, Text: "Harbor & Storms"},
			{Level: 1, Text: "Conclusion"},
		},
		Depth:      2,
		Confidence: 0.5,
		Sections: []model.OutlineSection{
			{Title: "Introduction", CardIDs: []string{"c2", "c1"}},
			{Title: "Conclusion", CardIDs: []string{"c4"}},
		},
		ItemCardAssignments: map[int][]string{2: {"c4", "c5"}, 0: {"c1", "c3"}},
	}
}

func TestNewBriefer_DisabledProvider(t *testing.T) {
	briefer, err := NewBriefer(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if briefer.IsEnabled() {
		t.Error("Expected briefer to be disabled")
	}
	if briefer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}

	brief, err := briefer.Generate(context.Background(), "book-1", testOutline())
	if err != nil || brief != nil {
		t.Errorf("Expected nil brief and no error, got %v, %v", brief, err)
	}
}

func TestBriefer_Generate_ProviderUnavailable(t *testing.T) {
	briefer := NewBrieferWithProvider(&MockProvider{name: "test-provider"}, Config{StrictCitation: true})

	brief, err := briefer.Generate(context.Background(), "book-1", testOutline())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if brief == nil {
		t.Fatal("Expected brief object with warnings")
	}
	if brief.Enabled {
		t.Error("Expected brief to be marked as disabled")
	}
	if len(brief.Warnings) == 0 || !strings.Contains(brief.Warnings[0], "not available") {
		t.Errorf("Expected unavailability warning, got %v", brief.Warnings)
	}
}

func TestBriefer_Generate_Success(t *testing.T) {
	provider := &MockProvider{
		name:      "test-provider",
		available: true,
		response: &BriefResponse{
			Text:       "The book opens quietly [card:c1].",
			CitedCards: []string{"c1"},
			Model:      "test-model",
			TokensUsed: 150,
		},
	}
	briefer := NewBrieferWithProvider(provider, Config{Model: "test-model", StrictCitation: true, MaxTokens: 400})

	brief, err := briefer.Generate(context.Background(), "book-1", testOutline())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !brief.Enabled || brief.Provider != "test-provider" || brief.Model != "test-model" {
		t.Errorf("Unexpected brief header: %+v", brief)
	}
	if !brief.StrictCitation {
		t.Error("Expected strict citation mode to be enabled")
	}
	if brief.BriefMD != "The book opens quietly [card:c1]." {
		t.Errorf("Unexpected brief text: %s", brief.BriefMD)
	}

	wantIDs := []string{"c2", "c1", "c4", "c3", "c5"}
	if strings.Join(provider.lastReq.CardIDs, ",") != strings.Join(wantIDs, ",") {
		t.Errorf("Expected allowlist %v, got %v", wantIDs, provider.lastReq.CardIDs)
	}
	if provider.lastReq.BookID != "book-1" || provider.lastReq.MaxTokens != 400 {
		t.Errorf("Unexpected request: %+v", provider.lastReq)
	}

	foundTokens, foundCitations := false, false
	for _, w := range brief.Warnings {
		if strings.Contains(w, "Tokens used: 150") {
			foundTokens = true
		}
		if strings.Contains(w, "Verified 1 card citations") {
			foundCitations = true
		}
	}
	if !foundTokens || !foundCitations {
		t.Errorf("Expected token and citation notes, got %v", brief.Warnings)
	}
}

func TestBriefer_Generate_ProviderError(t *testing.T) {
	provider := &MockProvider{
		name:      "test-provider",
		available: true,
		err:       errors.New("API rate limit exceeded"),
	}
	briefer := NewBrieferWithProvider(provider, Config{StrictCitation: true})

	brief, err := briefer.Generate(context.Background(), "book-1", testOutline())
	if err != nil {
		t.Errorf("Expected no error (graceful degradation), got %v", err)
	}
	if brief == nil || !brief.Enabled {
		t.Fatal("Expected an enabled brief carrying the failure")
	}
	if brief.BriefMD != "" {
		t.Errorf("Expected no brief text, got %q", brief.BriefMD)
	}
	if len(brief.Warnings) == 0 || !strings.Contains(brief.Warnings[0], "failed") || !strings.Contains(brief.Warnings[0], "rate limit") {
		t.Errorf("Expected warning to mention error: %v", brief.Warnings)
	}
}

func TestRenderSeparateMarkdown(t *testing.T) {
	if md := RenderSeparateMarkdown(nil); md != "" {
		t.Error("Expected empty markdown when nil")
	}
	if md := RenderSeparateMarkdown(&model.OutlineBrief{Enabled: false}); md != "" {
		t.Error("Expected empty markdown when disabled")
	}

	md := RenderSeparateMarkdown(&model.OutlineBrief{
		Enabled:        true,
		Provider:       "openai",
		Model:          "gpt-4o-mini",
		StrictCitation: true,
		BriefMD:        "Generated brief content.",
		Warnings:       []string{"Tokens used: 150"},
	})
	for _, want := range []string{
		"# Outline Brief",
		"GENERATED CONTENT",
		"determined independently",
		"openai",
		"gpt-4o-mini",
		"Strict Citation Mode:** true",
		"Generated brief content.",
		"## Notes",
		"Tokens used: 150",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q", want)
		}
	}

	empty := RenderSeparateMarkdown(&model.OutlineBrief{Enabled: true, Provider: "x"})
	if !strings.Contains(empty, "No brief generated") {
		t.Error("Expected message about no brief")
	}
}

func TestBuildPrompt_BasicStructure(t *testing.T) {
	outline := testOutline()
	prompt := BuildPrompt("book-1", *outline, []string{"c1", "c2"})

	for _, want := range []string{
		"CRITICAL RULES",
		"MAY ONLY cite cards from this allowed list",
		"- c1",
		"- c2",
		"Book: book-1",
		"Outline depth: 2",
		"Outline confidence: 50%",
		"- Introduction (cards: c1, c3)",
		"  - Harbor & Storms",
		"- Conclusion (cards: c4, c5)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestBuildPrompt_NoCards(t *testing.T) {
	prompt := BuildPrompt("book-1", model.OutlineStructure{}, nil)
	if !strings.Contains(prompt, "(No cards available)") {
		t.Error("Expected prompt to note the empty allowlist")
	}
}

func TestBuildPrompt_TruncatesAllowlist(t *testing.T) {
	ids := make([]string, maxPromptCards+5)
	for i := range ids {
		ids[i] = "c"
	}
	prompt := BuildPrompt("book-1", model.OutlineStructure{}, ids)
	if !strings.Contains(prompt, "... and 5 more cards") {
		t.Error("Expected allowlist to be truncated")
	}
}
