package render

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/inspirepan/golem/internal/testutil"
)

type step struct {
	current, pending string
	last             bool
}

func drain(t *testing.T, l *lookahead) []step {
	t.Helper()
	var out []step
	for {
		cur, next, last, err := l.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, step{cur, next, last})
	}
}

func TestLookahead_MarksLastPiece(t *testing.T) {
	l := newLookahead(testutil.NewSliceStream("Hello", "", " world", ""), 100)
	got := drain(t, l)
	want := []step{
		{"Hello", " world", false},
		{" world", "", true},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLookahead_EmptyStream(t *testing.T) {
	l := newLookahead(testutil.NewSliceStream("", ""), 100)
	if got := drain(t, l); len(got) != 0 {
		t.Fatalf("got %v, want nothing", got)
	}
}

func TestLookahead_SplitsOversizedChunks(t *testing.T) {
	l := newLookahead(testutil.NewSliceStream("héllo wörld"), 4)
	var pieces []string
	for _, s := range drain(t, l) {
		pieces = append(pieces, s.current)
	}
	want := []string{"héll", "o wö", "rld"}
	if !slices.Equal(pieces, want) {
		t.Fatalf("pieces = %q, want %q", pieces, want)
	}
}

func TestLookahead_StreamErrorEndsWindow(t *testing.T) {
	src := testutil.NewSliceStream("a", "b")
	boom := errors.New("boom")
	src.Err = boom
	l := newLookahead(src, 10)

	ctx := context.Background()
	if cur, _, last, err := l.Next(ctx); err != nil || cur != "a" || last {
		t.Fatalf("first = %q %v %v", cur, last, err)
	}
	if cur, _, last, err := l.Next(ctx); err != nil || cur != "b" || !last {
		t.Fatalf("second = %q %v %v", cur, last, err)
	}
	if _, _, _, err := l.Next(ctx); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}
