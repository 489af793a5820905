package render

import (
	"context"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/inspirepan/golem"
)

// lookahead reads a text stream one piece behind, so the piece being
// committed is always known to be the last one or not. Empty chunks are
// skipped and chunks longer than limit are split.
type lookahead struct {
	src   golem.TextStream
	limit int

	split   []string
	pending string
	hasNext bool
	started bool
	// err is a stream failure seen while peeking; it ends the window.
	err error
}

func newLookahead(src golem.TextStream, limit int) *lookahead {
	return &lookahead{src: src, limit: limit}
}

// Next returns the piece to commit (current) and the one after it (pending).
// last is true when nothing follows current. It returns io.EOF once every
// piece has been returned.
func (l *lookahead) Next(ctx context.Context) (current, pending string, last bool, err error) {
	if !l.started {
		l.started = true
		p, ok, err := l.pull(ctx)
		if err != nil {
			return "", "", true, err
		}
		l.pending, l.hasNext = p, ok
	}
	if !l.hasNext {
		if l.err != nil {
			return "", "", true, l.err
		}
		return "", "", true, io.EOF
	}

	current = l.pending
	p, ok, err := l.pull(ctx)
	if err != nil {
		l.err = err
		ok = false
	}
	l.pending, l.hasNext = p, ok
	return current, p, !ok, nil
}

// pull returns the next non-empty piece; ok is false at the end of the stream.
func (l *lookahead) pull(ctx context.Context) (string, bool, error) {
	for {
		if len(l.split) > 0 {
			p := l.split[0]
			l.split = l.split[1:]
			return p, true, nil
		}
		chunk, err := l.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		if chunk == "" {
			continue
		}
		l.split = splitRunes(chunk, l.limit)
	}
}

// splitRunes cuts s into pieces of at most limit runes.
func splitRunes(s string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	var out []string
	for s != "" {
		n, i := 0, 0
		for i < len(s) && n < limit {
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
			n++
		}
		out = append(out, s[:i])
		s = s[i:]
	}
	return out
}
