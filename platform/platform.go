// Package platform defines the chat platform the bot talks through.
package platform

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/inspirepan/golem"
)

// ChannelType classifies where a message was posted.
type ChannelType string

const (
	ChannelText          ChannelType = "text"
	ChannelPublicThread  ChannelType = "public_thread"
	ChannelPrivateThread ChannelType = "private_thread"
	ChannelDirect        ChannelType = "direct"
	ChannelVoice         ChannelType = "voice"
)

// EmbedState is the visual state of a bot answer.
type EmbedState string

const (
	StateInProgress EmbedState = "in-progress"
	StateComplete   EmbedState = "complete"
)

// Placeholder is the description of an answer that has no text yet.
const Placeholder = "⏳"

// Attachment is a file attached to a message.
type Attachment struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// IsImage reports whether the attachment is an image.
func (a Attachment) IsImage() bool { return strings.Contains(a.ContentType, "image") }

// Field is a titled line under an embed, used for warnings.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Embed is the rich body bots answer with.
type Embed struct {
	Description string     `json:"description"`
	State       EmbedState `json:"state"`
	Fields      []Field    `json:"fields,omitempty"`
}

// Message is one chat message.
type Message struct {
	ID          string      `json:"id"`
	ChannelID   string      `json:"channel_id"`
	ChannelType ChannelType `json:"channel_type"`
	// ParentChannelID is set when ChannelID is a thread.
	ParentChannelID string       `json:"parent_channel_id,omitempty"`
	AuthorID        string       `json:"author_id"`
	AuthorIsBot     bool         `json:"author_is_bot,omitempty"`
	AuthorRoleIDs   []string     `json:"author_role_ids,omitempty"`
	Content         string       `json:"content"`
	Embed           *Embed       `json:"embed,omitempty"`
	Attachments     []Attachment `json:"attachments,omitempty"`
	// ReplyToID is the message this one explicitly replies to.
	ReplyToID  string    `json:"reply_to_id,omitempty"`
	MentionIDs []string  `json:"mention_ids,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsThread reports whether the message was posted inside a thread.
func (m *Message) IsThread() bool {
	return m.ChannelType == ChannelPublicThread || m.ChannelType == ChannelPrivateThread
}

// Mentions reports whether the message mentions id.
func (m *Message) Mentions(id string) bool { return slices.Contains(m.MentionIDs, id) }

// Identity is how the bot appears on the platform.
type Identity struct {
	ID string
	// Mention is the token users type to address the bot.
	Mention string
}

// Platform is the set of primitives the bot needs from a chat service.
type Platform interface {
	Self() Identity
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
	// FetchThreadStarter returns the message a thread was opened from.
	FetchThreadStarter(ctx context.Context, threadID string) (*Message, error)
	// Reply posts embed as a reply to the message to and returns the new message.
	Reply(ctx context.Context, to *Message, embed Embed) (*Message, error)
	Edit(ctx context.Context, msg *Message, embed Embed) error
}

// Error is a failed platform operation. It matches golem.ErrPlatform.
type Error struct {
	Op        string
	MessageID string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("platform: %s %s: %v", e.Op, e.MessageID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == golem.ErrPlatform }
