// Package google talks to the Gemini API through the genai SDK.
package google

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/providers/base"
	"google.golang.org/genai"
)

// Config configures the Gemini provider.
type Config struct {
	base.Config
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

// WithExtraHeader adds a custom header to requests.
func WithExtraHeader(key, value string) Option {
	return func(c *Config) {
		if c.ExtraHeaders == nil {
			c.ExtraHeaders = make(map[string]string)
		}
		c.ExtraHeaders[key] = value
	}
}

// New creates a ChatProvider using the Gemini API.
// It reads GEMINI_API_KEY (or GOOGLE_API_KEY) and GEMINI_BASE_URL from environment if not explicitly set.
// The client is created on first use.
func New(model string, opts ...Option) golem.ChatProvider {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	base.ApplyEnvDefaults(&cfg.Config, "GEMINI_API_KEY", "GEMINI_BASE_URL")
	if cfg.APIKey == "" {
		base.ApplyEnvDefaults(&cfg.Config, "GOOGLE_API_KEY", "")
	}
	p := &provider{model: model, cfg: cfg}
	p.client = sync.OnceValues(p.connect)
	return p
}

type provider struct {
	model  string
	cfg    Config
	client func() (*genai.Client, error)
}

func (p *provider) connect() (*genai.Client, error) {
	cc := &genai.ClientConfig{APIKey: p.cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if p.cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = p.cfg.BaseURL
	}
	if len(p.cfg.ExtraHeaders) > 0 {
		cc.HTTPOptions.Headers = http.Header{}
		for k, v := range p.cfg.ExtraHeaders {
			cc.HTTPOptions.Headers.Set(k, v)
		}
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	return client, nil
}

func (p *provider) config(req golem.GenerateRequest) *genai.GenerateContentConfig {
	gc := BuildConfig(req)
	temperature, maxTokens := p.cfg.Sampling(req)
	if temperature != nil {
		gc.Temperature = genai.Ptr(float32(*temperature))
	}
	if maxTokens != nil {
		gc.MaxOutputTokens = int32(*maxTokens)
	}
	return gc
}

func (p *provider) Complete(ctx context.Context, req golem.GenerateRequest) (*golem.GenerateResult, error) {
	client, err := p.client()
	if err != nil {
		return nil, err
	}
	contents, err := BuildContents(req.History)
	if err != nil {
		return nil, err
	}
	gc := p.config(req)

	debug, err := base.NewDebugLogger(p.cfg.DebugPath, "google", p.model)
	if err != nil {
		return nil, err
	}
	defer debug.Close()
	debug.Log("request", map[string]any{"contents": contents, "config": gc})

	resp, err := client.Models.GenerateContent(ctx, p.model, contents, gc)
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	debug.Log("response", resp)

	msg, err := ConvertResponse(resp)
	if err != nil {
		return nil, err
	}
	return &golem.GenerateResult{Message: msg}, nil
}

// ConvertResponse turns the first candidate into an assistant message.
// Function calls without an id get a generated one.
func ConvertResponse(resp *genai.GenerateContentResponse) (golem.AssistantMessage, error) {
	msg := golem.AssistantMessage{Timestamp: time.Now().UnixMilli(), StopReason: golem.StopStop}
	if text := resp.Text(); text != "" {
		msg.Parts = append(msg.Parts, golem.TextPart{Text: text})
	}
	for _, fc := range resp.FunctionCalls() {
		args, err := marshalArgs(fc.Args)
		if err != nil {
			return msg, fmt.Errorf("google: function call %s: %w", fc.Name, err)
		}
		id := fc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		msg.Parts = append(msg.Parts, golem.ToolCallPart{CallID: id, Name: fc.Name, ArgsJSON: args})
		msg.StopReason = golem.StopToolUse
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		msg.StopReason = golem.StopLength
	}
	return msg, nil
}
