// Package render streams a model answer into chat messages, splitting it at
// the platform size limit and pacing edits.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/conversation"
	"github.com/inspirepan/golem/internal/logging"
	"github.com/inspirepan/golem/platform"
	"github.com/labstack/gommon/log"
)

const (
	DefaultMaxLength      = 4096
	DefaultEditsPerSecond = 1.3
)

// Config bounds message size and edit rate.
type Config struct {
	// MaxLength is the largest description, in runes, one message can carry.
	MaxLength int
	// EditsPerSecond is the total edit budget shared by every open answer.
	EditsPerSecond float64
	Logger         *log.Logger
	Now            func() time.Time
}

// Segment is one outbound message of an answer.
type Segment struct {
	Message *platform.Message
	Text    string
	Final   bool
}

// Result is a fully delivered answer.
type Result struct {
	Segments []*Segment
	// Text is the whole answer across segments.
	Text string
}

// Renderer delivers streamed answers on a platform.
type Renderer struct {
	store    *conversation.Store
	platform platform.Platform
	cfg      Config
	log      *log.Logger
}

func NewRenderer(store *conversation.Store, p platform.Platform, cfg Config) *Renderer {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.EditsPerSecond <= 0 {
		cfg.EditsPerSecond = DefaultEditsPerSecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Renderer{
		store:    store,
		platform: p,
		cfg:      cfg,
		log:      logging.OrDefault(cfg.Logger, "render"),
	}
}

// segment tracks one open message and its in-flight edit.
type segment struct {
	Segment
	lastEdit time.Time
	inflight chan error
	err      error
}

// busy reports whether an edit is still in flight.
func (s *segment) busy() bool {
	if s.inflight == nil {
		return false
	}
	select {
	case s.err = <-s.inflight:
		s.inflight = nil
		return false
	default:
		return true
	}
}

// wait blocks until the in-flight edit, if any, completes and returns its error.
func (s *segment) wait() error {
	if s.inflight != nil {
		s.err = <-s.inflight
		s.inflight = nil
	}
	err := s.err
	s.err = nil
	return err
}

// interval is the minimum gap between edits of one segment.
func (r *Renderer) interval() time.Duration {
	active := max(r.store.ActiveCount(), 1)
	return time.Duration(float64(active) / r.cfg.EditsPerSecond * float64(time.Second))
}

// Render streams the answer to origin. Warnings are shown on the first
// segment only. Every segment it opens is marked active until the answer is
// complete; delivered segments are then cached as assistant nodes replying
// to origin. Platform failures abort the answer and are returned.
func (r *Renderer) Render(ctx context.Context, origin *platform.Message, warnings []string, stream golem.TextStream) (*Result, error) {
	defer stream.Close()

	var (
		segs []*segment
		cur  *segment
		text strings.Builder
	)
	defer func() {
		for _, s := range segs {
			_ = s.wait()
			r.store.Release(s.Message.ID)
		}
	}()

	la := newLookahead(stream, r.cfg.MaxLength)
	for {
		piece, next, last, err := la.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("render: stream: %w", err)
		}

		if cur == nil || runes(cur.Text)+runes(piece) > r.cfg.MaxLength {
			if cur != nil {
				if err := cur.wait(); err != nil {
					return nil, err
				}
			}
			cur, err = r.open(ctx, origin, cur, len(segs) == 0, warnings)
			if err != nil {
				return nil, err
			}
			segs = append(segs, cur)
		}

		cur.Text += piece
		text.WriteString(piece)

		final := last || runes(cur.Text)+runes(next) > r.cfg.MaxLength
		now := r.cfg.Now()
		if final || (!cur.busy() && now.Sub(cur.lastEdit) >= r.interval()) {
			if err := cur.wait(); err != nil {
				return nil, err
			}
			r.edit(ctx, cur, final, len(segs) == 1, warnings)
			cur.lastEdit = now
		}
	}

	for _, s := range segs {
		if err := s.wait(); err != nil {
			return nil, err
		}
	}
	res := &Result{Text: text.String()}
	parent, _ := r.store.Node(origin.ID)
	self := r.platform.Self()
	for _, s := range segs {
		res.Segments = append(res.Segments, &s.Segment)
		n := &conversation.Node{
			ID:     s.Message.ID,
			Role:   golem.RoleAssistant,
			Parts:  []golem.Part{golem.TextPart{Text: res.Text}},
			Author: self.ID,
		}
		if parent != nil {
			r.store.Link(n, parent)
		}
		// A walk may have cached the placeholder before this segment was
		// activated. The answer overwrites it.
		r.store.Replace(n)
	}
	return res, nil
}

func (r *Renderer) open(ctx context.Context, origin *platform.Message, prev *segment, first bool, warnings []string) (*segment, error) {
	to := origin
	if prev != nil {
		to = prev.Message
	}
	m, err := r.platform.Reply(ctx, to, r.embed(platform.Placeholder, platform.StateInProgress, first, warnings))
	if err != nil {
		return nil, fmt.Errorf("render: open segment: %w", err)
	}
	r.store.Activate(m.ID)
	r.log.Debugf("opened segment %s replying to %s", m.ID, to.ID)
	return &segment{Segment: Segment{Message: m}, lastEdit: r.cfg.Now()}, nil
}

// edit issues an edit of s without waiting for it. The caller must have
// drained any earlier edit.
func (r *Renderer) edit(ctx context.Context, s *segment, final, first bool, warnings []string) {
	desc := platform.Placeholder
	if strings.TrimSpace(s.Text) != "" {
		desc = s.Text
	}
	state := platform.StateInProgress
	if final {
		state = platform.StateComplete
		s.Final = true
	}
	embed := r.embed(desc, state, first, warnings)
	done := make(chan error, 1)
	s.inflight = done
	msg := s.Message
	go func() {
		err := r.platform.Edit(ctx, msg, embed)
		if err != nil {
			err = fmt.Errorf("render: edit: %w", err)
		}
		done <- err
	}()
}

func (r *Renderer) embed(desc string, state platform.EmbedState, first bool, warnings []string) platform.Embed {
	e := platform.Embed{Description: desc, State: state}
	if first {
		sorted := slices.Clone(warnings)
		slices.Sort(sorted)
		for _, w := range sorted {
			e.Fields = append(e.Fields, platform.Field{Name: w})
		}
	}
	return e
}

func runes(s string) int { return utf8.RuneCountInString(s) }
