// Package orchestrator runs one bot turn per accepted message: assemble the
// conversation, consult memory tools, stream the answer and remember it.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/conversation"
	"github.com/inspirepan/golem/dispatch"
	"github.com/inspirepan/golem/internal/logging"
	"github.com/inspirepan/golem/platform"
	"github.com/inspirepan/golem/render"
	"github.com/labstack/gommon/log"
)

const (
	DefaultTemperature     = 0.8
	DefaultMaxOutputTokens = 1024

	// RememberCommand stores the rest of the message in memory without answering.
	RememberCommand = "!remember"

	// NothingToSee fills the image description slot of the system prompt.
	NothingToSee = "Nothing notable here to see"
)

const (
	memorySlot = "%mem%"
	seeSlot    = "%isee%"
)

// Dispatcher consults the tool API. *dispatch.Engine implements it.
type Dispatcher interface {
	Run(ctx context.Context, req dispatch.Request) (*dispatch.Outcome, error)
}

type Config struct {
	SystemPrompt string
	// Extras are appended to the system prompt, one per line.
	Extras []string

	AllowedChannelIDs []string
	AllowedRoleIDs    []string

	// Answer sampling; zero values select the defaults.
	Temperature     float64
	MaxOutputTokens int

	Logger *log.Logger
	Now    func() time.Time
}

type Orchestrator struct {
	provider   golem.ChatProvider
	platform   platform.Platform
	assembler  *conversation.Assembler
	dispatcher Dispatcher
	renderer   *render.Renderer
	cfg        Config
	log        *log.Logger
}

func New(provider golem.ChatProvider, p platform.Platform, a *conversation.Assembler, d Dispatcher, r *render.Renderer, cfg Config) (*Orchestrator, error) {
	if provider == nil {
		return nil, golem.ErrNoProvider
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		provider:   provider,
		platform:   p,
		assembler:  a,
		dispatcher: d,
		renderer:   r,
		cfg:        cfg,
		log:        logging.OrDefault(cfg.Logger, "orchestrator"),
	}, nil
}

// HandleMessage runs a turn for msg. Filtered messages return nil.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg *platform.Message) error {
	if !o.Accept(msg) {
		return nil
	}

	if rest, ok := strings.CutPrefix(o.stripMention(msg.Content), RememberCommand); ok {
		return o.remember(ctx, strings.TrimSpace(rest))
	}

	hist, err := o.assembler.Assemble(ctx, msg)
	if err != nil {
		return fmt.Errorf("orchestrator: assemble %s: %w", msg.ID, err)
	}
	o.log.Infof("message %s received, chain length %d", msg.ID, len(hist.Chain))

	memory := dispatch.NothingNoteworthy
	outcome, err := o.dispatcher.Run(ctx, dispatch.Request{
		Instruction:   hist.Origin().Text(),
		PreviousReply: hist.Previous(),
	})
	if err != nil {
		o.log.Warnf("memory lookup for %s: %v", msg.ID, err)
	} else {
		memory = outcome.Text()
	}

	stream, err := o.provider.Stream(ctx, golem.GenerateRequest{
		SystemPrompt:    o.SystemPrompt(memory),
		History:         hist.Messages(),
		Temperature:     golem.Float(o.cfg.Temperature),
		MaxOutputTokens: golem.Int(o.cfg.MaxOutputTokens),
	})
	if err != nil {
		return fmt.Errorf("orchestrator: answer %s: %w", msg.ID, err)
	}

	res, err := o.renderer.Render(ctx, msg, hist.Warnings, stream)
	if err != nil {
		return fmt.Errorf("orchestrator: render %s: %w", msg.ID, err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return nil
	}

	if _, err := o.dispatcher.Run(ctx, dispatch.Request{
		Instruction: dispatch.RecallInstruction(res.Text, o.cfg.Now()),
	}); err != nil {
		o.log.Warnf("memory write for %s: %v", msg.ID, err)
	}
	return nil
}

// SystemPrompt composes the answer prompt with memory filled in.
func (o *Orchestrator) SystemPrompt(memory string) string {
	lines := []string{
		o.cfg.SystemPrompt,
		fmt.Sprintf("Today's date: %s. You remember these happening in the world or in the minds of characters <memories>(%s)</memories>. What you see: (%s)",
			o.cfg.Now().Format("January 02 2006"), memorySlot, seeSlot),
	}
	lines = append(lines, o.cfg.Extras...)
	return strings.NewReplacer(memorySlot, memory, seeSlot, NothingToSee).Replace(strings.Join(lines, "\n"))
}

func (o *Orchestrator) remember(ctx context.Context, text string) error {
	if text == "" {
		o.log.Debugf("empty %s ignored", RememberCommand)
		return nil
	}
	outcome, err := o.dispatcher.Run(ctx, dispatch.Request{Instruction: dispatch.RememberInstruction(text)})
	if err != nil {
		return fmt.Errorf("orchestrator: remember: %w", err)
	}
	o.log.Infof("remembered with %d tool call(s)", len(outcome.Results))
	return nil
}

func (o *Orchestrator) stripMention(content string) string {
	if m := o.platform.Self().Mention; m != "" {
		if rest, ok := strings.CutPrefix(content, m); ok {
			return strings.TrimLeft(rest, " \t\n")
		}
	}
	return content
}
