package testutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/inspirepan/golem/platform"
)

// Edit is one recorded edit.
type Edit struct {
	MessageID string
	Embed     platform.Embed
}

// Platform is an in-memory platform.Platform that records what the bot sends.
type Platform struct {
	Identity platform.Identity
	// EditDelay holds each Edit call before it completes.
	EditDelay time.Duration
	// FailFetch makes FetchMessage fail for these ids.
	FailFetch map[string]bool
	EditErr   error
	ReplyErr  error
	// OnReply runs after Reply has stored the new message and before it
	// returns to the caller.
	OnReply func(*platform.Message)

	mu       sync.Mutex
	messages map[string]*platform.Message
	threads  map[string]string
	replies  []*platform.Message
	edits    []Edit
	inFlight map[string]int
	overlap  bool
	seq      int
	log      []string
}

func NewPlatform() *Platform {
	return &Platform{
		Identity: platform.Identity{ID: "bot", Mention: "<@bot>"},
		messages: map[string]*platform.Message{},
		threads:  map[string]string{},
		inFlight: map[string]int{},
	}
}

// Add stores messages so they can be fetched.
func (p *Platform) Add(msgs ...*platform.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		p.messages[m.ID] = m
	}
}

// AddThread records that threadID was opened from starterID.
func (p *Platform) AddThread(threadID, starterID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.threads[threadID] = starterID
}

func (p *Platform) Self() platform.Identity { return p.Identity }

func (p *Platform) FetchMessage(_ context.Context, _, id string) (*platform.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailFetch[id] {
		return nil, &platform.Error{Op: "fetch", MessageID: id, Err: errors.New("forbidden")}
	}
	m, ok := p.messages[id]
	if !ok {
		return nil, &platform.Error{Op: "fetch", MessageID: id, Err: errors.New("not found")}
	}
	return clone(m), nil
}

func (p *Platform) FetchThreadStarter(ctx context.Context, threadID string) (*platform.Message, error) {
	p.mu.Lock()
	starter, ok := p.threads[threadID]
	p.mu.Unlock()
	if !ok {
		return nil, &platform.Error{Op: "fetch thread starter", MessageID: threadID, Err: errors.New("not found")}
	}
	return p.FetchMessage(ctx, "", starter)
}

func (p *Platform) Reply(ctx context.Context, to *platform.Message, embed platform.Embed) (*platform.Message, error) {
	m, err := p.reply(to, embed)
	if err != nil {
		return nil, err
	}
	if p.OnReply != nil {
		p.OnReply(m)
	}
	return m, nil
}

func (p *Platform) reply(to *platform.Message, embed platform.Embed) (*platform.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ReplyErr != nil {
		return nil, &platform.Error{Op: "reply", MessageID: to.ID, Err: p.ReplyErr}
	}
	p.seq++
	e := embed
	e.Fields = slices.Clone(embed.Fields)
	m := &platform.Message{
		ID:          fmt.Sprintf("reply-%d", p.seq),
		ChannelID:   to.ChannelID,
		ChannelType: to.ChannelType,
		AuthorID:    p.Identity.ID,
		AuthorIsBot: true,
		Embed:       &e,
		ReplyToID:   to.ID,
		CreatedAt:   time.Now(),
	}
	p.messages[m.ID] = m
	p.replies = append(p.replies, m)
	p.log = append(p.log, "reply "+m.ID)
	return clone(m), nil
}

func (p *Platform) Edit(ctx context.Context, msg *platform.Message, embed platform.Embed) error {
	p.mu.Lock()
	if p.inFlight[msg.ID] > 0 {
		p.overlap = true
	}
	p.inFlight[msg.ID]++
	p.mu.Unlock()

	if p.EditDelay > 0 {
		select {
		case <-time.After(p.EditDelay):
		case <-ctx.Done():
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight[msg.ID]--
	if p.EditErr != nil {
		return &platform.Error{Op: "edit", MessageID: msg.ID, Err: p.EditErr}
	}
	e := embed
	e.Fields = slices.Clone(embed.Fields)
	p.edits = append(p.edits, Edit{MessageID: msg.ID, Embed: e})
	p.log = append(p.log, "edit "+msg.ID+" "+string(e.State))
	if stored, ok := p.messages[msg.ID]; ok {
		stored.Embed = &e
	}
	return nil
}

// Replies returns the messages the bot created, in order.
func (p *Platform) Replies() []*platform.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.replies)
}

// Edits returns every completed edit, in order.
func (p *Platform) Edits() []Edit {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.edits)
}

// EditsFor returns the completed edits of one message.
func (p *Platform) EditsFor(id string) []Edit {
	var out []Edit
	for _, e := range p.Edits() {
		if e.MessageID == id {
			out = append(out, e)
		}
	}
	return out
}

// Overlapped reports whether two edits of one message were ever in flight together.
func (p *Platform) Overlapped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overlap
}

// Log returns replies and completed edits as "reply <id>" and
// "edit <id> <state>" lines, in the order they happened.
func (p *Platform) Log() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.log)
}

func clone(m *platform.Message) *platform.Message {
	c := *m
	if m.Embed != nil {
		e := *m.Embed
		e.Fields = slices.Clone(m.Embed.Fields)
		c.Embed = &e
	}
	c.Attachments = slices.Clone(m.Attachments)
	return &c
}
