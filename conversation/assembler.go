package conversation

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/internal/logging"
	"github.com/inspirepan/golem/platform"
	"github.com/labstack/gommon/log"
)

const (
	DefaultMaxMessages = 20
	DefaultMaxHops     = 30
	// DefaultGenerationWait bounds how long a walk waits on an answer that is
	// still in progress.
	DefaultGenerationWait = 2 * time.Minute
)

// Config bounds the assembled history.
type Config struct {
	// MaxImages caps image parts per message. Zero means images are not sent.
	MaxImages int
	// MaxMessages caps the history length. Zero means DefaultMaxMessages.
	MaxMessages int
	// MaxHops caps how many messages one walk materializes. Zero means DefaultMaxHops.
	MaxHops int
	// GenerationWait bounds the wait on an in-progress answer met during a
	// walk. Zero means DefaultGenerationWait.
	GenerationWait time.Duration
	Logger         *log.Logger
}

// ImageWarning is shown when a message in the history carried too many images.
func (c Config) ImageWarning() string {
	switch {
	case c.MaxImages == 1:
		return "⚠️ Max 1 image per message"
	case c.MaxImages > 1:
		return fmt.Sprintf("⚠️ Max %d images per message", c.MaxImages)
	}
	return "⚠️ Can't see images"
}

// TruncationWarning is shown when older messages were left out.
func (c Config) TruncationWarning() string {
	return fmt.Sprintf("⚠️ Only using last %d messages", c.MaxMessages)
}

// History is the assembled context for one turn.
type History struct {
	// Chain runs from the observed message back to its oldest kept ancestor.
	Chain    []*Node
	Warnings []string
}

// Origin returns the node of the observed message.
func (h *History) Origin() *Node { return h.Chain[0] }

// Messages returns the chain oldest first, ready for the model.
func (h *History) Messages() []golem.Message {
	out := make([]golem.Message, 0, len(h.Chain))
	for i := len(h.Chain) - 1; i >= 0; i-- {
		out = append(out, h.Chain[i].Message())
	}
	return out
}

// Previous returns the text of the message before the observed one.
func (h *History) Previous() string {
	if len(h.Chain) < 2 {
		return ""
	}
	return h.Chain[1].Text()
}

// Assembler walks reply chains on a platform and caches what it sees.
type Assembler struct {
	store    *Store
	platform platform.Platform
	cfg      Config
	log      *log.Logger
}

func NewAssembler(store *Store, p platform.Platform, cfg Config) *Assembler {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultMaxMessages
	}
	if cfg.MaxHops <= 0 {
		cfg.MaxHops = DefaultMaxHops
	}
	if cfg.MaxImages < 0 {
		cfg.MaxImages = 0
	}
	if cfg.GenerationWait <= 0 {
		cfg.GenerationWait = DefaultGenerationWait
	}
	return &Assembler{
		store:    store,
		platform: p,
		cfg:      cfg,
		log:      logging.OrDefault(cfg.Logger, "conversation"),
	}
}

// Assemble rebuilds the history ending at msg. If msg replies to a message
// that is still being answered, it waits for that answer to finish first.
func (a *Assembler) Assemble(ctx context.Context, msg *platform.Message) (*History, error) {
	if msg.ReplyToID != "" && a.store.IsActive(msg.ReplyToID) {
		a.log.Debugf("waiting for %s to finish generating", msg.ReplyToID)
		if err := a.store.WaitReleased(ctx, msg.ReplyToID); err != nil {
			return nil, err
		}
	}
	origin := a.walk(ctx, msg)
	return a.build(origin), nil
}

// Materialize returns the cached node for msg, creating it on first sight.
func (a *Assembler) Materialize(msg *platform.Message) *Node {
	if n, ok := a.store.Node(msg.ID); ok {
		return n
	}
	self := a.platform.Self()

	content := msg.Content
	if msg.AuthorIsBot && msg.Embed != nil {
		content = msg.Embed.Description
	}
	if self.Mention != "" && strings.HasPrefix(content, self.Mention) {
		content = strings.TrimLeft(content[len(self.Mention):], " \t\r\n")
	}

	role := golem.RoleUser
	if msg.AuthorID == self.ID {
		role = golem.RoleAssistant
	}

	var parts []golem.Part
	if content != "" {
		parts = append(parts, golem.TextPart{Text: content})
	}
	images := 0
	for _, att := range msg.Attachments {
		if !att.IsImage() {
			continue
		}
		images++
		if images <= a.cfg.MaxImages {
			parts = append(parts, golem.ImagePart{URL: att.URL, MimeType: att.ContentType, Detail: "low"})
		}
	}

	return a.store.Put(&Node{
		ID:                 msg.ID,
		Role:               role,
		Parts:              parts,
		Author:             msg.AuthorID,
		TooManyAttachments: images > a.cfg.MaxImages,
	})
}

// walk materializes msg and its ancestors until it reaches a cached node,
// the start of the chain, or the hop limit.
func (a *Assembler) walk(ctx context.Context, msg *platform.Message) *Node {
	origin := a.Materialize(msg)
	curr, node := msg, origin

	for hops := 1; hops < a.cfg.MaxHops; hops++ {
		if node.Parent() != nil {
			break
		}
		if curr.ReplyToID != "" {
			if cached, ok := a.store.Node(curr.ReplyToID); ok {
				a.store.Link(node, cached)
				break
			}
		}

		prev, err := a.predecessor(ctx, curr)
		if err != nil {
			a.log.Debugf("%v at %s: %v", golem.ErrChainEnd, curr.ID, err)
			break
		}
		if prev == nil {
			break
		}
		if a.inProgress(prev) {
			if prev, err = a.awaitAnswer(ctx, curr, prev); err != nil {
				a.log.Debugf("%v at %s: %v", golem.ErrChainEnd, curr.ID, err)
				break
			}
		}

		if cached, ok := a.store.Node(prev.ID); ok {
			a.store.Link(node, cached)
			break
		}
		pn := a.Materialize(prev)
		a.store.Link(node, pn)
		curr, node = prev, pn
	}
	return origin
}

// inProgress reports whether m is one of our answers still showing its
// placeholder.
func (a *Assembler) inProgress(m *platform.Message) bool {
	return m.AuthorIsBot && m.AuthorID == a.platform.Self().ID &&
		m.Embed != nil && m.Embed.State == platform.StateInProgress
}

// awaitAnswer waits for the in-progress answer prev to finish and returns
// the message to continue the walk with. A wait that runs out continues
// with prev as fetched.
func (a *Assembler) awaitAnswer(ctx context.Context, curr, prev *platform.Message) (*platform.Message, error) {
	a.log.Debugf("waiting for %s to finish generating", prev.ID)
	wctx, cancel := context.WithTimeout(ctx, a.cfg.GenerationWait)
	defer cancel()
	if err := a.store.WaitAnswered(wctx, prev.ID); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.log.Warnf("gave up waiting for %s: %v", prev.ID, err)
		return prev, nil
	}
	if _, ok := a.store.Node(prev.ID); ok {
		return prev, nil
	}
	return a.predecessor(ctx, curr)
}

// predecessor fetches the message m follows: its reply target, or the thread
// starter for a thread message without one. It returns nil at the chain start.
func (a *Assembler) predecessor(ctx context.Context, m *platform.Message) (*platform.Message, error) {
	switch {
	case m.ReplyToID != "":
		return a.platform.FetchMessage(ctx, m.ChannelID, m.ReplyToID)
	case m.IsThread():
		return a.platform.FetchThreadStarter(ctx, m.ChannelID)
	}
	return nil, nil
}

func (a *Assembler) build(origin *Node) *History {
	h := &History{}
	warnings := map[string]bool{}

	for n := origin; n != nil && len(h.Chain) < a.cfg.MaxMessages; n = n.Parent() {
		h.Chain = append(h.Chain, n)
		if n.TooManyAttachments {
			warnings[a.cfg.ImageWarning()] = true
		}
		if len(h.Chain) == a.cfg.MaxMessages && n.Parent() != nil {
			warnings[a.cfg.TruncationWarning()] = true
		}
	}

	for w := range warnings {
		h.Warnings = append(h.Warnings, w)
	}
	slices.Sort(h.Warnings)
	return h
}
