package chatcompletion

import (
	"context"
	"io"

	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/providers/base"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

// Stream yields the text deltas of a streaming chat completion.
type Stream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
	debug  *base.DebugLogger
	done   bool
}

func NewStream(stream *ssestream.Stream[openai.ChatCompletionChunk], debug *base.DebugLogger) *Stream {
	return &Stream{stream: stream, debug: debug}
}

// Next returns the next content delta. A chunk without choices or content
// yields an empty string rather than ending the stream.
func (s *Stream) Next(ctx context.Context) (string, error) {
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

	chunk := s.stream.Current()
	s.debug.Log("chunk", chunk.RawJSON())
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	return chunk.Choices[0].Delta.Content, nil
}

func (s *Stream) Close() error {
	_ = s.debug.Close()
	return s.stream.Close()
}

var _ golem.TextStream = (*Stream)(nil)
