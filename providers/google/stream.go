package google

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/providers/base"
	"google.golang.org/genai"
)

func (p *provider) Stream(ctx context.Context, req golem.GenerateRequest) (golem.TextStream, error) {
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
	debug.Log("request", map[string]any{"contents": contents, "config": gc})

	next, stop := iter.Pull2(client.Models.GenerateContentStream(ctx, p.model, contents, gc))
	return &stream{next: next, stop: stop, debug: debug}, nil
}

type stream struct {
	next  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
	debug *base.DebugLogger
	done  bool
}

func (s *stream) Next(ctx context.Context) (string, error) {
	if s.done {
		return "", io.EOF
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, err, ok := s.next()
	if !ok {
		s.done = true
		return "", io.EOF
	}
	if err != nil {
		s.done = true
		return "", fmt.Errorf("google: %w", err)
	}
	s.debug.Log("chunk", resp)
	return resp.Text(), nil
}

func (s *stream) Close() error {
	s.stop()
	return s.debug.Close()
}
