// Package chatcompletion talks to OpenAI-compatible Chat Completions
// endpoints: OpenAI itself, Mistral, and local servers such as LM Studio.
package chatcompletion

import (
	"context"
	"fmt"

	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/providers/base"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	MistralBaseURL = "https://api.mistral.ai/v1"
	// LocalAPIKey is sent to local servers, which ignore it.
	LocalAPIKey = "lm-studio"
)

// Config configures OpenAI Chat Completions API provider.
type Config struct {
	base.Config
	// Name labels debug records.
	Name       string
	MaxRetries *int
	// ExtraBody fields are merged into every request body.
	ExtraBody map[string]any
}

// Option is a functional option for this provider.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithTemperature sets the default temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = &t }
}

// WithMaxOutputTokens sets the default max output tokens.
func WithMaxOutputTokens(n int) Option {
	return func(c *Config) { c.MaxOutputTokens = &n }
}

// WithDebug enables JSONL debug logging to the specified file path.
func WithDebug(path string) Option {
	return func(c *Config) { c.DebugPath = path }
}

// WithName labels debug records, e.g. "mistral".
func WithName(name string) Option {
	return func(c *Config) { c.Name = name }
}

// WithMaxRetries sets how often failed requests are retried.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = &n }
}

// WithExtraHeader adds a custom header to requests.
func WithExtraHeader(key, value string) Option {
	return func(c *Config) {
		if c.ExtraHeaders == nil {
			c.ExtraHeaders = make(map[string]string)
		}
		c.ExtraHeaders[key] = value
	}
}

// WithExtraBody adds a custom field to the request body.
func WithExtraBody(key string, value any) Option {
	return func(c *Config) {
		if c.ExtraBody == nil {
			c.ExtraBody = make(map[string]any)
		}
		c.ExtraBody[key] = value
	}
}

// New creates a ChatProvider using the Chat Completions API.
// It reads OPENAI_API_KEY and OPENAI_BASE_URL from environment if not explicitly set.
func New(model string, opts ...Option) golem.ChatProvider {
	cfg := Config{Name: "chatcompletion"}
	for _, opt := range opts {
		opt(&cfg)
	}
	base.ApplyEnvDefaults(&cfg.Config, "OPENAI_API_KEY", "OPENAI_BASE_URL")

	var clientOpts []option.RequestOption
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries != nil {
		clientOpts = append(clientOpts, option.WithMaxRetries(*cfg.MaxRetries))
	}
	for k, v := range cfg.ExtraHeaders {
		clientOpts = append(clientOpts, option.WithHeader(k, v))
	}
	for k, v := range cfg.ExtraBody {
		clientOpts = append(clientOpts, option.WithJSONSet(k, v))
	}
	client := openai.NewClient(clientOpts...)
	return &provider{model: model, cfg: cfg, client: client}
}

type provider struct {
	model  string
	cfg    Config
	client openai.Client
}

func (p *provider) params(req golem.GenerateRequest) openai.ChatCompletionNewParams {
	params := BuildParams(req)
	params.Model = p.model

	temperature, maxTokens := p.cfg.Sampling(req)
	if temperature != nil {
		params.Temperature = openai.Float(*temperature)
	}
	if maxTokens != nil {
		params.MaxTokens = openai.Int(int64(*maxTokens))
	}
	return params
}

func (p *provider) Complete(ctx context.Context, req golem.GenerateRequest) (*golem.GenerateResult, error) {
	params := p.params(req)

	debug, err := base.NewDebugLogger(p.cfg.DebugPath, p.cfg.Name, p.model)
	if err != nil {
		return nil, err
	}
	defer debug.Close()
	debug.Log("request", params)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.cfg.Name, err)
	}
	debug.Log("response", resp.RawJSON())

	return &golem.GenerateResult{Message: ConvertResponse(resp)}, nil
}

func (p *provider) Stream(ctx context.Context, req golem.GenerateRequest) (golem.TextStream, error) {
	params := p.params(req)

	debug, err := base.NewDebugLogger(p.cfg.DebugPath, p.cfg.Name, p.model)
	if err != nil {
		return nil, err
	}
	debug.Log("request", params)

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	return NewStream(stream, debug), nil
}
