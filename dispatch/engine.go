// Package dispatch lets the model pick tools from a compiled API description
// and calls the matching remote endpoints under a per-turn budget.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/internal/logging"
	"github.com/labstack/gommon/log"
)

const (
	DefaultMaxCalls = 1
	DefaultTimeout  = 100 * time.Second
)

// Config controls where and how tools are called.
type Config struct {
	// BaseURL is prefixed to every tool name to build its endpoint.
	BaseURL string
	// MaxCalls bounds dispatched calls per turn. Zero means DefaultMaxCalls.
	MaxCalls int
	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
	// Now overrides the clock used for instruction timestamps.
	Now func() time.Time
}

// Engine runs tool-selection turns against a provider.
type Engine struct {
	provider golem.ChatProvider
	tools    []golem.ToolSchema
	cfg      Config
	client   *http.Client
	log      *log.Logger
}

// New returns an Engine exposing tools to provider.
func New(provider golem.ChatProvider, tools []golem.ToolSchema, cfg Config) (*Engine, error) {
	if provider == nil {
		return nil, golem.ErrNoProvider
	}
	if cfg.MaxCalls <= 0 {
		cfg.MaxCalls = DefaultMaxCalls
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Engine{
		provider: provider,
		tools:    tools,
		cfg:      cfg,
		client:   client,
		log:      logging.OrDefault(cfg.Logger, "dispatch"),
	}, nil
}

// Tools returns the schemas exposed to the model.
func (e *Engine) Tools() []golem.ToolSchema { return e.tools }

// Request is one tool-selection turn.
type Request struct {
	// Instruction is the user's text; the current world time is appended.
	Instruction string
	// PreviousReply is the last assistant text in the conversation, if any.
	PreviousReply string
}

// Outcome aggregates what a turn dispatched.
type Outcome struct {
	Results []golem.ToolResult
	// Messages is the running conversation, including one tool entry per result.
	Messages []golem.Message
	// Rejected holds one *InvocationError per invocation that was not dispatched
	// because of its arguments.
	Rejected []error
	// Discarded counts invocations dropped by the per-turn ceiling.
	Discarded int
}

// Text joins the results for the model, or returns NothingNoteworthy when
// nothing succeeded.
func (o *Outcome) Text() string {
	if o == nil {
		return NothingNoteworthy
	}
	ok := false
	parts := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		if !r.Failed() {
			ok = true
		}
		parts = append(parts, r.String())
	}
	if !ok {
		return NothingNoteworthy
	}
	return strings.Join(parts, "\n")
}

// Run asks the model which tools to call and dispatches them in order. Only
// a provider failure is returned as an error; per-invocation problems are
// logged and recorded on the Outcome.
func (e *Engine) Run(ctx context.Context, req Request) (*Outcome, error) {
	now := e.cfg.Now()

	var history []golem.Message
	if req.PreviousReply != "" {
		history = append(history, golem.AssistantMessage{
			Parts:     []golem.Part{golem.TextPart{Text: req.PreviousReply}},
			Timestamp: now.UnixMilli(),
		})
	}
	history = append(history, golem.UserMessage{
		Parts:     []golem.Part{golem.TextPart{Text: req.Instruction + " worldtime is: " + WorldTime(now)}},
		Timestamp: now.UnixMilli(),
	})

	res, err := e.provider.Complete(ctx, golem.GenerateRequest{
		SystemPrompt: MemoryInstruction(),
		History:      history,
		Tools:        e.tools,
		Temperature:  golem.Float(0),
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: tool selection: %w", err)
	}

	out := &Outcome{Messages: append(history, res.Message)}
	calls := golem.Invocations(res.Message)
	dispatched := 0

	for i, call := range calls {
		if dispatched >= e.cfg.MaxCalls {
			out.Discarded = len(calls) - i
			e.log.Warnf("reached max tool calls (%d), discarding %d invocation(s)", e.cfg.MaxCalls, out.Discarded)
			break
		}

		body, err := DecodeBody(call.ArgsJSON)
		if err != nil {
			ierr := &InvocationError{Tool: call.Name, CallID: call.CallID, Err: err}
			e.log.Warnf("%v", ierr)
			out.Rejected = append(out.Rejected, ierr)
			continue
		}

		result := e.call(ctx, call, body)
		dispatched++
		out.Results = append(out.Results, result)
		out.Messages = append(out.Messages, result.Message(e.cfg.Now().UnixMilli()))
	}

	return out, nil
}

// Endpoint returns the URL a tool is posted to.
func (e *Engine) Endpoint(tool string) string {
	return strings.TrimRight(e.cfg.BaseURL, "/") + "/" + tool
}

// call posts body to the tool's endpoint. Every failure, remote or local,
// comes back as a ToolResult failure descriptor.
func (e *Engine) call(ctx context.Context, inv golem.ToolInvocation, body json.RawMessage) golem.ToolResult {
	result := golem.ToolResult{CallID: inv.CallID, Name: inv.Name}
	url := e.Endpoint(inv.Name)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	e.log.Debugf("posting to %s: %s", url, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return e.fail(result, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return e.fail(result, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		result.Failure = fmt.Sprintf("Request failed. Status code: %d", resp.StatusCode)
		e.log.Warnf("%s: %v: status %d", inv.Name, golem.ErrRemoteCall, resp.StatusCode)
		return result
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return e.fail(result, fmt.Errorf("decode response: %w", err))
	}
	result.Body = decoded
	return result
}

func (e *Engine) fail(result golem.ToolResult, err error) golem.ToolResult {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s", e.cfg.Timeout)
	}
	result.Failure = fmt.Sprintf("Request failed. Error: %v", err)
	e.log.Warnf("%s: %v: %v", result.Name, golem.ErrRemoteCall, err)
	return result
}
