// Package openrouter reaches many model vendors through OpenRouter's
// OpenAI-compatible endpoint.
package openrouter

import (
	"os"

	"github.com/inspirepan/golem"
	cc "github.com/inspirepan/golem/providers/chatcompletion"
)

const DefaultBaseURL = "https://openrouter.ai/api/v1"

// ProviderSortStrategy defines the sorting strategy for provider routing.
type ProviderSortStrategy string

const (
	ProviderSortPrice      ProviderSortStrategy = "price"
	ProviderSortThroughput ProviderSortStrategy = "throughput"
	ProviderSortLatency    ProviderSortStrategy = "latency"
)

// ProviderRouting configures OpenRouter's provider routing preferences.
type ProviderRouting struct {
	Order []string             // Preferred provider order
	Sort  ProviderSortStrategy // Sorting strategy when order is not specified
}

func (r ProviderRouting) body() map[string]any {
	body := map[string]any{}
	if len(r.Order) > 0 {
		body["order"] = r.Order
	}
	if r.Sort != "" {
		body["sort"] = string(r.Sort)
	}
	return body
}

// Config configures the OpenRouter provider.
type Config struct {
	APIKey  string
	BaseURL string
	// Title identifies the app on OpenRouter's dashboards.
	Title   string
	Routing *ProviderRouting
	// Options are passed through to the Chat Completions provider.
	Options []cc.Option
}

// Option is a functional option for this provider.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithTitle sets the X-Title attribution header.
func WithTitle(title string) Option {
	return func(c *Config) { c.Title = title }
}

// WithProviderSorting sets the provider sorting strategy.
func WithProviderSorting(strategy ProviderSortStrategy) Option {
	return func(c *Config) {
		if c.Routing == nil {
			c.Routing = &ProviderRouting{}
		}
		c.Routing.Sort = strategy
	}
}

// WithProviderOrder sets the preferred provider order.
func WithProviderOrder(providers ...string) Option {
	return func(c *Config) {
		if c.Routing == nil {
			c.Routing = &ProviderRouting{}
		}
		c.Routing.Order = providers
	}
}

// WithChatOption passes an option to the underlying Chat Completions provider.
func WithChatOption(opt cc.Option) Option {
	return func(c *Config) { c.Options = append(c.Options, opt) }
}

// New creates a ChatProvider using OpenRouter.
// It reads OPENROUTER_API_KEY from environment if not explicitly set.
func New(model string, opts ...Option) golem.ChatProvider {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	ccOpts := []cc.Option{
		cc.WithName("openrouter"),
		cc.WithAPIKey(cfg.APIKey),
		cc.WithBaseURL(cfg.BaseURL),
	}
	if cfg.Title != "" {
		ccOpts = append(ccOpts, cc.WithExtraHeader("X-Title", cfg.Title))
	}
	if cfg.Routing != nil {
		ccOpts = append(ccOpts, cc.WithExtraBody("provider", cfg.Routing.body()))
	}
	return cc.New(model, append(ccOpts, cfg.Options...)...)
}
