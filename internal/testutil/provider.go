package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/inspirepan/golem"
)

// ScriptedProvider replays canned completions and streams.
type ScriptedProvider struct {
	mu sync.Mutex
	// Completions are returned by Complete in order; the last one repeats.
	Completions []golem.AssistantMessage
	CompleteErr error
	// Chunks are streamed by every Stream call.
	Chunks    []string
	StreamErr error

	Requests []golem.GenerateRequest
	calls    int
}

// ToolCalls builds an assistant message requesting the given calls, as
// alternating name/arguments pairs.
func ToolCalls(pairs ...string) golem.AssistantMessage {
	msg := golem.AssistantMessage{StopReason: golem.StopToolUse}
	for i := 0; i+1 < len(pairs); i += 2 {
		msg.Parts = append(msg.Parts, golem.ToolCallPart{
			CallID:   "call_" + pairs[i] + "_" + string(rune('a'+i/2)),
			Name:     pairs[i],
			ArgsJSON: json.RawMessage(pairs[i+1]),
		})
	}
	return msg
}

func (p *ScriptedProvider) Complete(_ context.Context, req golem.GenerateRequest) (*golem.GenerateResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, req)
	if p.CompleteErr != nil {
		return nil, p.CompleteErr
	}
	if len(p.Completions) == 0 {
		return &golem.GenerateResult{Message: golem.AssistantMessage{StopReason: golem.StopStop}}, nil
	}
	i := min(p.calls, len(p.Completions)-1)
	p.calls++
	return &golem.GenerateResult{Message: p.Completions[i]}, nil
}

func (p *ScriptedProvider) Stream(_ context.Context, req golem.GenerateRequest) (golem.TextStream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, req)
	if p.StreamErr != nil {
		return nil, p.StreamErr
	}
	return NewSliceStream(p.Chunks...), nil
}

// Recorded returns a copy of the requests seen so far.
func (p *ScriptedProvider) Recorded() []golem.GenerateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]golem.GenerateRequest(nil), p.Requests...)
}

// SliceStream yields fixed chunks, then io.EOF.
type SliceStream struct {
	chunks []string
	i      int
	// Err, when set, is returned instead of io.EOF at the end.
	Err error
	// Delay holds each chunk before it is returned.
	Delay  time.Duration
	closed bool
}

func NewSliceStream(chunks ...string) *SliceStream {
	return &SliceStream{chunks: chunks}
}

func (s *SliceStream) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.closed {
		return "", errors.New("stream closed")
	}
	if s.i >= len(s.chunks) {
		if s.Err != nil {
			return "", s.Err
		}
		return "", io.EOF
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c := s.chunks[s.i]
	s.i++
	return c, nil
}

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *SliceStream) Closed() bool { return s.closed }
