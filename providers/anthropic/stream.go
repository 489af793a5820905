package anthropic

import (
	"context"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/inspirepan/golem/providers/base"
)

// stream yields text deltas; every other event yields an empty chunk.
type stream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
	debug  *base.DebugLogger
	done   bool
}

func (s *stream) Next(ctx context.Context) (string, error) {
	if s.done {
		return "", io.EOF
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !s.stream.Next() {
		s.done = true
		if err := s.stream.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	event := s.stream.Current()
	s.debug.Log("event", event.RawJSON())
	if ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
		if d, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
			return d.Text, nil
		}
	}
	return "", nil
}

func (s *stream) Close() error {
	_ = s.debug.Close()
	return s.stream.Close()
}
