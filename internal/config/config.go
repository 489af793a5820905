// Package config reads the bot's settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/inspirepan/golem/providers/base"
)

// Config is the resolved process configuration.
type Config struct {
	LLM      string
	Provider string
	Model    string
	Vision   bool

	OpenAIKey      string
	MistralKey     string
	AnthropicKey   string
	GeminiKey      string
	OpenRouterKey  string
	LocalServerURL string

	APIServerURL string

	AllowedChannelIDs []string
	AllowedRoleIDs    []string

	MaxImages    int
	MaxMessages  int
	MaxToolCalls int
	ToolTimeout  time.Duration

	SystemPrompt string
	BotName      string
	ListenAddr   string

	LogLevel string
	DebugLog string
}

// DescriptionURL is where the tool API publishes its OpenAPI description.
func (c *Config) DescriptionURL() string {
	return strings.TrimRight(c.APIServerURL, "/") + "/swagger.json"
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = base.LoadEnv()

	c := &Config{
		LLM:            env("LLM", "gpt-4o-mini"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		MistralKey:     os.Getenv("MISTRAL_API_KEY"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		OpenRouterKey:  os.Getenv("OPENROUTER_API_KEY"),
		LocalServerURL: env("LOCAL_SERVER_URL", "http://localhost:1234/v1"),
		APIServerURL:   env("API_SERVER_URL", "http://localhost:7071"),
		SystemPrompt:   env("CUSTOM_SYSTEM_PROMPT", "You are a helpful assistant."),
		BotName:        env("BOT_NAME", "golem"),
		ListenAddr:     env("LISTEN_ADDR", ":8080"),
		LogLevel:       env("LOG_LEVEL", "info"),
		DebugLog:       os.Getenv("DEBUG_LOG"),

		AllowedChannelIDs: list(os.Getenv("ALLOWED_CHANNEL_IDS")),
		AllowedRoleIDs:    list(os.Getenv("ALLOWED_ROLE_IDS")),
	}

	var err error
	if c.Provider, c.Model, err = ParseLLM(c.LLM); err != nil {
		return nil, err
	}
	if m := os.Getenv("MODEL"); m != "" {
		c.Model = m
	}
	c.Vision = strings.Contains(c.LLM, "vision")

	if c.MaxImages, err = intEnv("MAX_IMAGES", 5, 0); err != nil {
		return nil, err
	}
	if !c.Vision {
		c.MaxImages = 0
	}
	if c.MaxMessages, err = intEnv("MAX_MESSAGES", 20, 1); err != nil {
		return nil, err
	}
	if c.MaxToolCalls, err = intEnv("MAX_TOOL_CALLS", 1, 1); err != nil {
		return nil, err
	}
	if v := os.Getenv("TOOL_TIMEOUT"); v != "" {
		if c.ToolTimeout, err = time.ParseDuration(v); err != nil || c.ToolTimeout <= 0 {
			return nil, fmt.Errorf("config: TOOL_TIMEOUT: invalid duration %q", v)
		}
	} else {
		c.ToolTimeout = 100 * time.Second
	}
	return c, nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intEnv reads a count no smaller than least.
func intEnv(key string, def, least int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < least {
		return 0, fmt.Errorf("config: %s: invalid count %q, want at least %d", key, v, least)
	}
	return n, nil
}

func list(v string) []string {
	var out []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
