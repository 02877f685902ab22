package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/quire/internal/model"
)

// DefaultOllamaBaseURL is Ollama's OpenAI-compatible endpoint
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		// Ollama ignores the key but the client requires one
		if config.APIKey == "" {
			config.APIKey = "ollama"
		}
		if config.BaseURL == "" {
			config.BaseURL = DefaultOllamaBaseURL
		}
		p, err := NewOpenAIProvider(config)
		if err != nil {
			return nil, err
		}
		p.name = "ollama"
		return p, nil

	case "":
		// No provider configured - LLM disabled
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:       modelConfig.Provider,
		Model:          modelConfig.Model,
		APIKey:         modelConfig.APIKey,
		BaseURL:        modelConfig.BaseURL,
		Timeout:        modelConfig.Timeout,
		StrictCitation: modelConfig.StrictCitation,
		MaxTokens:      modelConfig.MaxTokens,
		HTTPProxy:      modelConfig.HTTPProxy,
		HTTPSProxy:     modelConfig.HTTPSProxy,
	}
}
