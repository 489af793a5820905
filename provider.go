package golem

import "context"

// GenerateRequest is the provider-agnostic generation input.
type GenerateRequest struct {
	SystemPrompt string
	History      []Message
	// Tools are exposed with automatic tool choice when non-empty.
	Tools           []ToolSchema
	Temperature     *float64
	MaxOutputTokens *int
}

// GenerateResult is the provider-agnostic non-streaming output.
type GenerateResult struct {
	Message AssistantMessage
}

// TextStream yields incremental assistant text. A chunk may be empty when a
// provider event carried no text. Next returns io.EOF once the stream ends.
type TextStream interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// ChatProvider is the unified interface implemented by providers.
type ChatProvider interface {
	// Complete runs a non-streaming completion, used for tool selection.
	Complete(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	// Stream runs a streaming text completion.
	Stream(ctx context.Context, req GenerateRequest) (TextStream, error)
}

// Float returns a pointer to v, for optional request fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for optional request fields.
func Int(v int) *int { return &v }
