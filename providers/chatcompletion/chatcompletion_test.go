package chatcompletion_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/internal/testutil"
	cc "github.com/inspirepan/golem/providers/chatcompletion"
	"github.com/tidwall/gjson"
)

const envKey = "OPENAI_API_KEY"

func TestOpenAI_BasicTextGeneration(t *testing.T) {
	testutil.SkipIfNoEnv(t, envKey)

	provider := cc.New("gpt-4o-mini")
	testutil.TestBasicTextGeneration(t, testutil.DefaultConfig(provider))
}

func TestOpenAI_ToolCalling(t *testing.T) {
	testutil.SkipIfNoEnv(t, envKey)

	provider := cc.New("gpt-4o-mini")
	testutil.TestToolCalling(t, testutil.DefaultConfig(provider))
}

func TestOpenAI_SystemPrompt(t *testing.T) {
	testutil.SkipIfNoEnv(t, envKey)

	provider := cc.New("gpt-4o-mini")
	testutil.TestSystemPrompt(t, testutil.DefaultConfig(provider))
}

func TestOpenAI_MultiTurn(t *testing.T) {
	testutil.SkipIfNoEnv(t, envKey)

	provider := cc.New("gpt-4o-mini")
	testutil.TestMultiTurn(t, testutil.DefaultConfig(provider))
}

func TestBuildParams(t *testing.T) {
	params := cc.BuildParams(golem.GenerateRequest{
		SystemPrompt: "be brief",
		History: []golem.Message{
			golem.UserMessage{Name: "u1", Parts: []golem.Part{
				golem.TextPart{Text: "what is this?"},
				golem.ImagePart{URL: "https://cdn/a.png", Detail: "low"},
			}},
			golem.AssistantMessage{Parts: []golem.Part{golem.TextPart{Text: "a cat"}}},
			golem.UserMessage{Name: "u2", Parts: []golem.Part{golem.TextPart{Text: "thanks"}}},
		},
		Tools: []golem.ToolSchema{{Name: "searchMemory", Description: "search", Parameters: map[string]any{"type": "object"}}},
	})

	data, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}
	doc := gjson.ParseBytes(data)

	if got := doc.Get("messages.#").Int(); got != 4 {
		t.Fatalf("messages = %d", got)
	}
	if doc.Get("messages.0.role").String() != "system" {
		t.Errorf("first role = %s", doc.Get("messages.0.role"))
	}
	user := doc.Get("messages.1")
	if user.Get("name").String() != "u1" || user.Get("content.1.image_url.detail").String() != "low" {
		t.Errorf("vision message = %s", user.Raw)
	}
	if doc.Get("messages.3.content").String() != "thanks" {
		t.Errorf("text-only message = %s", doc.Get("messages.3").Raw)
	}
	if doc.Get("tool_choice").String() != "auto" || doc.Get("tools.0.function.name").String() != "searchMemory" {
		t.Errorf("tools = %s / %s", doc.Get("tools").Raw, doc.Get("tool_choice").Raw)
	}
}

func fakeServer(t *testing.T, handler func(w http.ResponseWriter, body gjson.Result)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		data, _ := io.ReadAll(r.Body)
		handler(w, gjson.ParseBytes(data))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestComplete_ToolCalls(t *testing.T) {
	var sent gjson.Result
	url := fakeServer(t, func(w http.ResponseWriter, body gjson.Result) {
		sent = body
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
		"choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,
		"tool_calls":[{"id":"call_1","type":"function","function":{"name":"searchMemory","arguments":"{\"body\":{\"query\":\"key\"}}"}}]}}]}`)
	})

	p := cc.New("m", cc.WithBaseURL(url), cc.WithAPIKey("test"), cc.WithMaxRetries(0), cc.WithTemperature(0.8))
	res, err := p.Complete(context.Background(), golem.GenerateRequest{
		History:     []golem.Message{golem.UserMessage{Parts: []golem.Part{golem.TextPart{Text: "where?"}}}},
		Temperature: golem.Float(0),
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	calls := res.Message.ToolCalls()
	if len(calls) != 1 || calls[0].Name != "searchMemory" || string(calls[0].ArgsJSON) != `{"body":{"query":"key"}}` {
		t.Fatalf("calls = %+v", calls)
	}
	if res.Message.StopReason != golem.StopToolUse {
		t.Errorf("stop reason = %s", res.Message.StopReason)
	}
	if sent.Get("model").String() != "m" || sent.Get("temperature").Float() != 0 || !sent.Get("temperature").Exists() {
		t.Errorf("request = %s", sent.Raw)
	}
}

func TestStream_TextDeltas(t *testing.T) {
	url := fakeServer(t, func(w http.ResponseWriter, body gjson.Result) {
		if !body.Get("stream").Bool() {
			t.Error("stream flag not set")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{
			`{"id":"s","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"role":"assistant","content":"Hello"}}]}`,
			`{"id":"s","object":"chat.completion.chunk","created":1,"model":"m","choices":[]}`,
			`{"id":"s","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":" world"},"finish_reason":"stop"}]}`,
		} {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	p := cc.New("m", cc.WithBaseURL(url), cc.WithAPIKey("test"), cc.WithMaxRetries(0))
	stream, err := p.Stream(context.Background(), golem.GenerateRequest{
		History: []golem.Message{golem.UserMessage{Parts: []golem.Part{golem.TextPart{Text: "hi"}}}},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var chunks []string
	for {
		c, err := stream.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		chunks = append(chunks, c)
	}
	_ = stream.Close()

	if len(chunks) != 3 || chunks[0]+chunks[1]+chunks[2] != "Hello world" || chunks[1] != "" {
		t.Errorf("chunks = %q", chunks)
	}
}
