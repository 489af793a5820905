// Package testutil provides fakes and live conformance checks shared by tests.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/inspirepan/golem"
)

const DefaultTimeout = 60 * time.Second

// SkipIfNoEnv skips the test if the environment variable is not set.
func SkipIfNoEnv(t *testing.T, envVar string) {
	t.Helper()
	if os.Getenv(envVar) == "" {
		t.Skipf("skipping: %s not set", envVar)
	}
}

// TestConfig holds configuration for a live provider run.
type TestConfig struct {
	Provider golem.ChatProvider
	Timeout  time.Duration
}

// DefaultConfig returns a TestConfig with default timeout.
func DefaultConfig(provider golem.ChatProvider) TestConfig {
	return TestConfig{
		Provider: provider,
		Timeout:  DefaultTimeout,
	}
}

// Collect drains a stream into one string.
func Collect(ctx context.Context, s golem.TextStream) (string, error) {
	defer s.Close()
	var b strings.Builder
	for {
		chunk, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk)
	}
}

func streamText(t *testing.T, cfg TestConfig, req golem.GenerateRequest) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	stream, err := cfg.Provider.Stream(ctx, req)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	text, err := Collect(ctx, stream)
	if err != nil {
		t.Fatalf("stream.Next failed: %v", err)
	}
	return text
}

// TestBasicTextGeneration checks that a provider streams text.
func TestBasicTextGeneration(t *testing.T, cfg TestConfig) {
	t.Helper()

	text := streamText(t, cfg, golem.GenerateRequest{
		History: []golem.Message{
			golem.UserMessage{Parts: []golem.Part{golem.TextPart{Text: "Write a haiku"}}},
		},
		MaxOutputTokens: golem.Int(256),
	})
	if text == "" {
		t.Error("expected non-empty text response")
	}
	t.Logf("response: %q", text)
}

// memorySearchSchema mirrors what the schema compiler emits for a memory search endpoint.
var memorySearchSchema = golem.ToolSchema{
	Name:        "searchMemory",
	Description: "Search stored memories for relevant facts",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"requestBody": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"index":        map[string]any{"type": "string"},
					"query":        map[string]any{"type": "string"},
					"minRelevance": map[string]any{"type": "number"},
					"limit":        map[string]any{"type": "integer"},
				},
			},
		},
	},
}

// TestToolCalling checks that a provider returns a tool call from Complete.
func TestToolCalling(t *testing.T, cfg TestConfig) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	res, err := cfg.Provider.Complete(ctx, golem.GenerateRequest{
		SystemPrompt: "Always search memory before answering a question.",
		History: []golem.Message{
			golem.UserMessage{Parts: []golem.Part{golem.TextPart{Text: "Do you remember where Alice hid the key?"}}},
		},
		Tools:       []golem.ToolSchema{memorySearchSchema},
		Temperature: golem.Float(0),
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	calls := res.Message.ToolCalls()
	if len(calls) == 0 {
		t.Fatal("expected at least one tool call")
	}
	if calls[0].Name != "searchMemory" {
		t.Errorf("expected tool name 'searchMemory', got %q", calls[0].Name)
	}
	if !json.Valid(calls[0].ArgsJSON) {
		t.Errorf("tool arguments are not JSON: %s", calls[0].ArgsJSON)
	}
	t.Logf("tool calls: %d, first call: %s(%s)", len(calls), calls[0].Name, string(calls[0].ArgsJSON))
}

// TestSystemPrompt checks that the system prompt is respected.
func TestSystemPrompt(t *testing.T, cfg TestConfig) {
	t.Helper()

	text := streamText(t, cfg, golem.GenerateRequest{
		SystemPrompt: "You are a pirate. Always respond like a pirate. Use 'Arrr' in your response.",
		History: []golem.Message{
			golem.UserMessage{Parts: []golem.Part{golem.TextPart{Text: "Hello, how are you?"}}},
		},
	})
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "arrr") && !strings.Contains(lower, "ahoy") && !strings.Contains(lower, "matey") {
		t.Errorf("expected pirate-like response, got: %s", text)
	}
	t.Logf("response: %s", text)
}

// TestMultiTurn checks that earlier turns reach the model.
func TestMultiTurn(t *testing.T, cfg TestConfig) {
	t.Helper()

	text := streamText(t, cfg, golem.GenerateRequest{
		History: []golem.Message{
			golem.UserMessage{Parts: []golem.Part{golem.TextPart{Text: "My name is Alice."}}, Name: "u1"},
			golem.AssistantMessage{Parts: []golem.Part{golem.TextPart{Text: "Hello Alice! Nice to meet you."}}},
			golem.UserMessage{Parts: []golem.Part{golem.TextPart{Text: "What is my name?"}}, Name: "u1"},
		},
	})
	if !strings.Contains(strings.ToLower(text), "alice") {
		t.Errorf("expected response to contain 'Alice', got: %s", text)
	}
	t.Logf("response: %s", text)
}
