package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/quire/internal/model"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		resp := openai.ChatCompletionResponse{
			ID:      "chatcmpl-123",
			Object:  "chat.completion",
			Created: 1677652288,
			Model:   "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: content,
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 120},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func briefRequest() BriefRequest {
	return BriefRequest{
		BookID: "book-1",
		Outline: model.OutlineStructure{
			Items: []model.OutlineItem{
				{Level: 1, Text: "Introduction"},
				{Level: 2, Text: "Harbor & Storms"},
			},
			Depth:               2,
			Confidence:          0.6,
			ItemCardAssignments: map[int][]string{1: {"c1", "c2"}},
		},
		CardIDs: []string{"c1", "c2"},
	}
}

func TestOpenAIProvider_Brief_Success(t *testing.T) {
	server := chatServer(t, "The opening sets the harbor [card:c1] before the storm [card:c2]. Again [card:c1].")

	provider, err := NewOpenAIProvider(Config{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		Model:          "gpt-4o-mini",
		Timeout:        5,
		StrictCitation: true,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Brief(context.Background(), briefRequest())
	if err != nil {
		t.Fatalf("Brief failed: %v", err)
	}

	if !strings.HasPrefix(resp.Text, "The opening sets the harbor") {
		t.Errorf("Unexpected brief: %s", resp.Text)
	}
	if len(resp.CitedCards) != 2 || resp.CitedCards[0] != "c1" || resp.CitedCards[1] != "c2" {
		t.Errorf("Expected [c1 c2], got %v", resp.CitedCards)
	}
	if resp.TokensUsed != 120 {
		t.Errorf("Expected 120 tokens, got %d", resp.TokensUsed)
	}
	if resp.Model != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini, got %s", resp.Model)
	}
}

func TestOpenAIProvider_Brief_CitationLeak(t *testing.T) {
	server := chatServer(t, "This leans on [card:c1] and [card:c99].")

	provider, err := NewOpenAIProvider(Config{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		Timeout:        5,
		StrictCitation: true,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Brief(context.Background(), briefRequest())
	if err == nil {
		t.Fatal("Expected citation leak error, got nil")
	}
	if !strings.Contains(err.Error(), "CITATION LEAK") || !strings.Contains(err.Error(), "c99") {
		t.Errorf("Expected leak error naming c99, got %v", err)
	}
}

func TestOpenAIProvider_Brief_LenientCitation(t *testing.T) {
	server := chatServer(t, "This leans on [card:c99].")

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Brief(context.Background(), briefRequest())
	if err != nil {
		t.Fatalf("Expected no error without strict citation, got %v", err)
	}
	if len(resp.CitedCards) != 1 || resp.CitedCards[0] != "c99" {
		t.Errorf("Expected c99 to be reported, got %v", resp.CitedCards)
	}
}

func TestOpenAIProvider_Brief_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Brief(context.Background(), briefRequest()); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIProvider_Brief_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Brief(context.Background(), briefRequest()); err == nil {
		t.Fatal("Expected error for malformed JSON, got nil")
	}
}

func TestOpenAIProvider_Brief_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.Brief(ctx, briefRequest()); err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestOpenAIProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"data": [{"id": "gpt-4o-mini"}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("Expected error without API key")
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil || p != nil {
		t.Errorf("Expected disabled provider, got %v, %v", p, err)
	}

	p, err = NewProvider(Config{Provider: "Ollama"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Expected ollama, got %s", p.Name())
	}

	if _, err := NewProvider(Config{Provider: "anthropic"}); err == nil {
		t.Error("Expected error for unsupported provider")
	}
}

func TestExtractCardCitations(t *testing.T) {
	got := extractCardCitations("See [card:a1], [card: b2 ] and [card:a1]; not [c3] or card:d4.")
	if len(got) != 2 || got[0] != "a1" || got[1] != "b2" {
		t.Errorf("Expected [a1 b2], got %v", got)
	}
}
