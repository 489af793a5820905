// Command golem runs the chat bot behind the webchat HTTP surface.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/conversation"
	"github.com/inspirepan/golem/dispatch"
	"github.com/inspirepan/golem/internal/config"
	"github.com/inspirepan/golem/internal/logging"
	"github.com/inspirepan/golem/orchestrator"
	"github.com/inspirepan/golem/platform"
	"github.com/inspirepan/golem/platform/webchat"
	"github.com/inspirepan/golem/render"
	"github.com/inspirepan/golem/schema"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	lvl, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New("golem", lvl)

	provider, err := config.NewProvider(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tools := loadTools(ctx, cfg, logger)
	engine, err := dispatch.New(provider, tools, dispatch.Config{
		BaseURL:  cfg.APIServerURL,
		MaxCalls: cfg.MaxToolCalls,
		Timeout:  cfg.ToolTimeout,
		Logger:   logging.New("dispatch", lvl),
	})
	if err != nil {
		return err
	}

	chat := webchat.New(cfg.BotName, webchat.WithLogger(logging.New("webchat", lvl)))
	store := conversation.NewStore()
	assembler := conversation.NewAssembler(store, chat, conversation.Config{
		MaxImages:   cfg.MaxImages,
		MaxMessages: cfg.MaxMessages,
		Logger:      logging.New("conversation", lvl),
	})
	renderer := render.NewRenderer(store, chat, render.Config{Logger: logging.New("render", lvl)})

	var extras []string
	if cfg.Provider == config.ProviderGPT {
		extras = append(extras, "User's names are their IDs and should be typed as '<@ID>'.")
	}
	orch, err := orchestrator.New(provider, chat, assembler, engine, renderer, orchestrator.Config{
		SystemPrompt:      cfg.SystemPrompt,
		Extras:            extras,
		AllowedChannelIDs: cfg.AllowedChannelIDs,
		AllowedRoleIDs:    cfg.AllowedRoleIDs,
		Logger:            logging.New("orchestrator", lvl),
	})
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debugf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	chat.Register(e)

	go consume(ctx, chat.Inbox(), orch, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
	}()

	logger.Infof("%s answering with %s/%s on %s", cfg.BotName, cfg.Provider, cfg.Model, cfg.ListenAddr)
	if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// loadTools compiles the tool API description. The bot still answers
// without tools when the description is unavailable.
func loadTools(ctx context.Context, cfg *config.Config, logger *log.Logger) []golem.ToolSchema {
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	doc, err := schema.Fetch(fetchCtx, http.DefaultClient, cfg.DescriptionURL())
	if err != nil {
		logger.Warnf("tool API description unavailable: %v", err)
		return nil
	}
	tools, err := schema.Compile(doc)
	if err != nil {
		logger.Warnf("skipped operations: %v", err)
	}
	logger.Infof("compiled %d tool(s) from %s", len(tools), cfg.DescriptionURL())
	return tools
}

// consume runs one turn per inbox message, concurrently.
func consume(ctx context.Context, inbox <-chan *platform.Message, orch *orchestrator.Orchestrator, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-inbox:
			go func() {
				if err := orch.HandleMessage(ctx, msg); err != nil {
					logger.Errorf("turn %s: %v", msg.ID, err)
				}
			}()
		}
	}
}
