package config

import (
	"fmt"
	"strings"

	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/providers/anthropic"
	"github.com/inspirepan/golem/providers/chatcompletion"
	"github.com/inspirepan/golem/providers/google"
	"github.com/inspirepan/golem/providers/openrouter"
)

// Provider names accepted as the LLM prefix.
const (
	ProviderGPT       = "gpt"
	ProviderMistral   = "mistral"
	ProviderLocal     = "local"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderRouter    = "openrouter"
)

// ParseLLM splits an LLM setting into provider and model. gpt, mistral and
// gemini model names carry their prefix; local, anthropic and openrouter
// names drop it.
func ParseLLM(llm string) (provider, model string, err error) {
	provider, rest, _ := strings.Cut(llm, "-")
	switch provider {
	case ProviderGPT, ProviderMistral, ProviderGemini:
		return provider, llm, nil
	case ProviderLocal, ProviderAnthropic, ProviderRouter:
		if rest == "" {
			return "", "", fmt.Errorf("config: LLM %q names no model", llm)
		}
		return provider, rest, nil
	}
	return "", "", fmt.Errorf("config: LLM %q: unknown provider %q", llm, provider)
}

// NewProvider builds the chat provider selected by c.
func NewProvider(c *Config) (golem.ChatProvider, error) {
	switch c.Provider {
	case ProviderGPT:
		return chatcompletion.New(c.Model,
			chatcompletion.WithName(ProviderGPT),
			chatcompletion.WithAPIKey(c.OpenAIKey),
			chatcompletion.WithDebug(c.DebugLog),
		), nil
	case ProviderMistral:
		return chatcompletion.New(c.Model,
			chatcompletion.WithName(ProviderMistral),
			chatcompletion.WithAPIKey(c.MistralKey),
			chatcompletion.WithBaseURL(chatcompletion.MistralBaseURL),
			chatcompletion.WithDebug(c.DebugLog),
		), nil
	case ProviderLocal:
		return chatcompletion.New(c.Model,
			chatcompletion.WithName(ProviderLocal),
			chatcompletion.WithAPIKey(chatcompletion.LocalAPIKey),
			chatcompletion.WithBaseURL(c.LocalServerURL),
			chatcompletion.WithDebug(c.DebugLog),
		), nil
	case ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithDebug(c.DebugLog)}
		if c.AnthropicKey != "" {
			opts = append(opts, anthropic.WithAPIKey(c.AnthropicKey))
		}
		return anthropic.New(c.Model, opts...), nil
	case ProviderGemini:
		opts := []google.Option{google.WithDebug(c.DebugLog)}
		if c.GeminiKey != "" {
			opts = append(opts, google.WithAPIKey(c.GeminiKey))
		}
		return google.New(c.Model, opts...), nil
	case ProviderRouter:
		return openrouter.New(c.Model,
			openrouter.WithAPIKey(c.OpenRouterKey),
			openrouter.WithTitle(c.BotName),
			openrouter.WithChatOption(chatcompletion.WithDebug(c.DebugLog)),
		), nil
	}
	return nil, fmt.Errorf("%w: %q", golem.ErrNoProvider, c.Provider)
}
