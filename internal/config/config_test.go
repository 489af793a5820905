package config

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/inspirepan/golem"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LLM", "MODEL", "MAX_IMAGES", "MAX_MESSAGES", "MAX_TOOL_CALLS", "TOOL_TIMEOUT",
		"ALLOWED_CHANNEL_IDS", "ALLOWED_ROLE_IDS", "API_SERVER_URL", "CUSTOM_SYSTEM_PROMPT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Provider != ProviderGPT || c.Model != "gpt-4o-mini" || c.Vision {
		t.Errorf("llm = %+v", c)
	}
	if c.MaxImages != 0 {
		t.Errorf("images without vision = %d", c.MaxImages)
	}
	if c.MaxMessages != 20 || c.MaxToolCalls != 1 || c.ToolTimeout != 100*time.Second {
		t.Errorf("limits = %d %d %v", c.MaxMessages, c.MaxToolCalls, c.ToolTimeout)
	}
	if c.DescriptionURL() != "http://localhost:7071/swagger.json" {
		t.Errorf("description url = %s", c.DescriptionURL())
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM", "local-llava-vision")
	t.Setenv("MAX_IMAGES", "3")
	t.Setenv("MAX_TOOL_CALLS", "2")
	t.Setenv("TOOL_TIMEOUT", "5s")
	t.Setenv("ALLOWED_CHANNEL_IDS", "c1, c2,,")
	t.Setenv("API_SERVER_URL", "http://mem:9000/")

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Provider != ProviderLocal || c.Model != "llava-vision" || !c.Vision || c.MaxImages != 3 {
		t.Errorf("config = %+v", c)
	}
	if !slices.Equal(c.AllowedChannelIDs, []string{"c1", "c2"}) || c.AllowedRoleIDs != nil {
		t.Errorf("allow lists = %v %v", c.AllowedChannelIDs, c.AllowedRoleIDs)
	}
	if c.MaxToolCalls != 2 || c.ToolTimeout != 5*time.Second {
		t.Errorf("dispatch = %d %v", c.MaxToolCalls, c.ToolTimeout)
	}
	if c.DescriptionURL() != "http://mem:9000/swagger.json" {
		t.Errorf("description url = %s", c.DescriptionURL())
	}
}

func TestLoad_Invalid(t *testing.T) {
	for name, kv := range map[string][2]string{
		"count":    {"MAX_MESSAGES", "many"},
		"negative": {"MAX_IMAGES", "-1"},
		"messages": {"MAX_MESSAGES", "0"},
		"tools":    {"MAX_TOOL_CALLS", "0"},
		"duration": {"TOOL_TIMEOUT", "soon"},
		"provider": {"LLM", "cohere-command"},
	} {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Errorf("%s=%s accepted", kv[0], kv[1])
			}
		})
	}
}

func TestParseLLM(t *testing.T) {
	tests := []struct {
		llm, provider, model string
		ok                   bool
	}{
		{"gpt-4o-mini", ProviderGPT, "gpt-4o-mini", true},
		{"mistral-large-latest", ProviderMistral, "mistral-large-latest", true},
		{"gemini-2.0-flash", ProviderGemini, "gemini-2.0-flash", true},
		{"anthropic-claude-3-5-haiku-latest", ProviderAnthropic, "claude-3-5-haiku-latest", true},
		{"openrouter-google/gemini-2.0-flash", ProviderRouter, "google/gemini-2.0-flash", true},
		{"local", "", "", false},
		{"llama3", "", "", false},
	}
	for _, tt := range tests {
		provider, model, err := ParseLLM(tt.llm)
		if (err == nil) != tt.ok || provider != tt.provider || model != tt.model {
			t.Errorf("ParseLLM(%q) = %q, %q, %v", tt.llm, provider, model, err)
		}
	}
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{ProviderGPT, ProviderMistral, ProviderLocal, ProviderAnthropic, ProviderGemini, ProviderRouter} {
		p, err := NewProvider(&Config{Provider: name, Model: "m", GeminiKey: "k"})
		if err != nil || p == nil {
			t.Errorf("NewProvider(%s) = %v, %v", name, p, err)
		}
	}
	if _, err := NewProvider(&Config{Provider: "x"}); !errors.Is(err, golem.ErrNoProvider) {
		t.Errorf("unknown provider err = %v", err)
	}
}
