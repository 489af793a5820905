// Package anthropic talks to the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/providers/base"
)

// DefaultMaxTokens is used when neither the request nor the config sets a limit;
// the Messages API requires one.
const DefaultMaxTokens = 1024

// Config configures Anthropic Messages API provider.
type Config struct {
	base.Config
	MaxRetries *int
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

// WithMaxRetries sets how often failed requests are retried.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = &n }
}

// New creates a ChatProvider using Anthropic Messages API.
// The SDK reads ANTHROPIC_API_KEY and ANTHROPIC_BASE_URL from environment if not explicitly set.
func New(model string, opts ...Option) golem.ChatProvider {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}

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
	client := anthropic.NewClient(clientOpts...)
	return &provider{model: model, cfg: cfg, client: client}
}

type provider struct {
	model  string
	cfg    Config
	client anthropic.Client
}

func (p *provider) params(req golem.GenerateRequest) anthropic.MessageNewParams {
	params := BuildParams(req)
	params.Model = anthropic.Model(p.model)

	temperature, maxTokens := p.cfg.Sampling(req)
	params.MaxTokens = DefaultMaxTokens
	if maxTokens != nil {
		params.MaxTokens = int64(*maxTokens)
	}
	if temperature != nil {
		params.Temperature = anthropic.Float(*temperature)
	}
	return params
}

func (p *provider) Complete(ctx context.Context, req golem.GenerateRequest) (*golem.GenerateResult, error) {
	params := p.params(req)

	debug, err := base.NewDebugLogger(p.cfg.DebugPath, "anthropic", p.model)
	if err != nil {
		return nil, err
	}
	defer debug.Close()
	debug.Log("request", params)

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	debug.Log("response", resp.RawJSON())

	return &golem.GenerateResult{Message: ConvertResponse(resp)}, nil
}

func (p *provider) Stream(ctx context.Context, req golem.GenerateRequest) (golem.TextStream, error) {
	params := p.params(req)

	debug, err := base.NewDebugLogger(p.cfg.DebugPath, "anthropic", p.model)
	if err != nil {
		return nil, err
	}
	debug.Log("request", params)

	return &stream{stream: p.client.Messages.NewStreaming(ctx, params), debug: debug}, nil
}

// ConvertResponse turns a Messages API response into an assistant message.
func ConvertResponse(resp *anthropic.Message) golem.AssistantMessage {
	msg := golem.AssistantMessage{Timestamp: time.Now().UnixMilli()}
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			msg.Parts = append(msg.Parts, golem.TextPart{Text: b.Text})
		case anthropic.ToolUseBlock:
			msg.Parts = append(msg.Parts, golem.ToolCallPart{CallID: b.ID, Name: b.Name, ArgsJSON: b.Input})
		}
	}
	switch resp.StopReason {
	case anthropic.StopReasonMaxTokens:
		msg.StopReason = golem.StopLength
	case anthropic.StopReasonToolUse:
		msg.StopReason = golem.StopToolUse
	default:
		msg.StopReason = golem.StopStop
	}
	return msg
}
