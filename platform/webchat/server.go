// Package webchat is a small chat service served over HTTP. People post
// messages as JSON, watch a channel over server-sent events, and the bot
// answers through the platform.Platform methods.
package webchat

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inspirepan/golem/internal/logging"
	"github.com/inspirepan/golem/internal/pubsub"
	"github.com/inspirepan/golem/platform"
	"github.com/labstack/gommon/log"
)

// DirectPrefix marks direct-message channels.
const DirectPrefix = "dm-"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid message")

	mentionPattern = regexp.MustCompile(`<@([^>\s]+)>`)
)

// EventType tells subscribers what happened to a message.
type EventType string

const (
	EventCreated EventType = "created"
	EventEdited  EventType = "edited"
)

// Event is published on a channel topic for each message change.
type Event struct {
	Type    EventType        `json:"type"`
	Message platform.Message `json:"message"`
}

type thread struct {
	starterID string
	parentID  string
	private   bool
}

// Server stores messages in memory and implements platform.Platform.
type Server struct {
	self   platform.Identity
	events *pubsub.Channel[Event]
	inbox  chan *platform.Message
	log    *log.Logger
	now    func() time.Time

	mu       sync.RWMutex
	messages map[string]*platform.Message
	threads  map[string]thread
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.log = l } }

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// New returns a Server whose bot user is named botName.
func New(botName string, opts ...Option) *Server {
	s := &Server{
		self:     platform.Identity{ID: botName, Mention: "<@" + botName + ">"},
		events:   pubsub.NewChannel[Event](0),
		inbox:    make(chan *platform.Message, 100),
		now:      time.Now,
		messages: map[string]*platform.Message{},
		threads:  map[string]thread{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDefault(s.log, "webchat")
	return s
}

// Inbox delivers every message posted by people.
func (s *Server) Inbox() <-chan *platform.Message { return s.inbox }

// Subscribe streams events of one channel.
func (s *Server) Subscribe(channelID string) (<-chan Event, func()) {
	return s.events.Subscribe(channelID)
}

// PostRequest is a message sent by a person.
type PostRequest struct {
	AuthorID    string                `json:"author_id"`
	Content     string                `json:"content"`
	ReplyToID   string                `json:"reply_to_id,omitempty"`
	RoleIDs     []string              `json:"role_ids,omitempty"`
	Attachments []platform.Attachment `json:"attachments,omitempty"`
}

// Post stores a person's message, publishes it and queues it for the bot.
func (s *Server) Post(ctx context.Context, channelID string, req PostRequest) (*platform.Message, error) {
	if req.AuthorID == "" || channelID == "" {
		return nil, ErrInvalid
	}
	if req.AuthorID == s.self.ID {
		return nil, ErrInvalid
	}
	if strings.TrimSpace(req.Content) == "" && len(req.Attachments) == 0 {
		return nil, ErrInvalid
	}

	m := &platform.Message{
		ID:            uuid.NewString(),
		ChannelID:     channelID,
		AuthorID:      req.AuthorID,
		AuthorRoleIDs: req.RoleIDs,
		Content:       req.Content,
		Attachments:   req.Attachments,
		ReplyToID:     req.ReplyToID,
		MentionIDs:    mentions(req.Content),
	}

	s.mu.Lock()
	if m.ReplyToID != "" {
		if _, ok := s.messages[m.ReplyToID]; !ok {
			s.mu.Unlock()
			return nil, ErrNotFound
		}
	}
	s.place(m)
	s.messages[m.ID] = m
	out := clone(m)
	s.mu.Unlock()

	s.events.Publish(channelID, Event{Type: EventCreated, Message: *out})

	select {
	case s.inbox <- out:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return clone(out), nil
}

// StartThread opens a thread from messageID. The thread takes the starter
// message's id as its channel id.
func (s *Server) StartThread(messageID string, private bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageID]
	if !ok {
		return "", ErrNotFound
	}
	if _, exists := s.threads[messageID]; !exists {
		s.threads[messageID] = thread{starterID: m.ID, parentID: m.ChannelID, private: private}
	}
	return messageID, nil
}

// place fills in the channel type and timestamp. Callers hold s.mu.
func (s *Server) place(m *platform.Message) {
	m.CreatedAt = s.now()
	t, isThread := s.threads[m.ChannelID]
	switch {
	case isThread && t.private:
		m.ChannelType = platform.ChannelPrivateThread
		m.ParentChannelID = t.parentID
	case isThread:
		m.ChannelType = platform.ChannelPublicThread
		m.ParentChannelID = t.parentID
	case strings.HasPrefix(m.ChannelID, DirectPrefix):
		m.ChannelType = platform.ChannelDirect
	default:
		m.ChannelType = platform.ChannelText
	}
}

func (s *Server) Self() platform.Identity { return s.self }

func (s *Server) FetchMessage(_ context.Context, channelID, messageID string) (*platform.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[messageID]
	if !ok || (channelID != "" && m.ChannelID != channelID) {
		return nil, &platform.Error{Op: "fetch", MessageID: messageID, Err: ErrNotFound}
	}
	return clone(m), nil
}

func (s *Server) FetchThreadStarter(ctx context.Context, threadID string) (*platform.Message, error) {
	s.mu.RLock()
	t, ok := s.threads[threadID]
	s.mu.RUnlock()
	if !ok {
		return nil, &platform.Error{Op: "fetch thread starter", MessageID: threadID, Err: ErrNotFound}
	}
	return s.FetchMessage(ctx, t.parentID, t.starterID)
}

func (s *Server) Reply(_ context.Context, to *platform.Message, embed platform.Embed) (*platform.Message, error) {
	e := embed
	e.Fields = slices.Clone(embed.Fields)
	m := &platform.Message{
		ID:          uuid.NewString(),
		ChannelID:   to.ChannelID,
		AuthorID:    s.self.ID,
		AuthorIsBot: true,
		Embed:       &e,
		ReplyToID:   to.ID,
	}

	s.mu.Lock()
	if _, ok := s.messages[to.ID]; !ok {
		s.mu.Unlock()
		return nil, &platform.Error{Op: "reply", MessageID: to.ID, Err: ErrNotFound}
	}
	s.place(m)
	s.messages[m.ID] = m
	out := clone(m)
	s.mu.Unlock()

	s.events.Publish(m.ChannelID, Event{Type: EventCreated, Message: *out})
	return clone(out), nil
}

func (s *Server) Edit(_ context.Context, msg *platform.Message, embed platform.Embed) error {
	s.mu.Lock()
	m, ok := s.messages[msg.ID]
	if !ok || m.AuthorID != s.self.ID {
		s.mu.Unlock()
		return &platform.Error{Op: "edit", MessageID: msg.ID, Err: ErrNotFound}
	}
	e := embed
	e.Fields = slices.Clone(embed.Fields)
	m.Embed = &e
	out := clone(m)
	s.mu.Unlock()

	s.events.Publish(out.ChannelID, Event{Type: EventEdited, Message: *out})
	return nil
}

func mentions(content string) []string {
	var ids []string
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		if !slices.Contains(ids, m[1]) {
			ids = append(ids, m[1])
		}
	}
	return ids
}

func clone(m *platform.Message) *platform.Message {
	c := *m
	c.AuthorRoleIDs = slices.Clone(m.AuthorRoleIDs)
	c.Attachments = slices.Clone(m.Attachments)
	c.MentionIDs = slices.Clone(m.MentionIDs)
	if m.Embed != nil {
		e := *m.Embed
		e.Fields = slices.Clone(m.Embed.Fields)
		c.Embed = &e
	}
	return &c
}
