package webchat

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/inspirepan/golem"
	"github.com/inspirepan/golem/internal/logging"
	"github.com/inspirepan/golem/platform"
	"github.com/labstack/echo/v4"
)

func newServer() *Server { return New("golem", WithLogger(logging.Discard())) }

func TestPost_QueuesAndClassifies(t *testing.T) {
	s := newServer()
	ctx := context.Background()

	m, err := s.Post(ctx, "general", PostRequest{AuthorID: "u1", Content: "<@golem> hi <@u2> <@golem>"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if m.ChannelType != platform.ChannelText {
		t.Errorf("channel type = %s", m.ChannelType)
	}
	if !slices.Equal(m.MentionIDs, []string{"golem", "u2"}) {
		t.Errorf("mentions = %v", m.MentionIDs)
	}
	if got := <-s.Inbox(); got.ID != m.ID {
		t.Errorf("inbox = %s, want %s", got.ID, m.ID)
	}

	dm, _ := s.Post(ctx, DirectPrefix+"u1", PostRequest{AuthorID: "u1", Content: "psst"})
	<-s.Inbox()
	if dm.ChannelType != platform.ChannelDirect {
		t.Errorf("dm channel type = %s", dm.ChannelType)
	}
}

func TestPost_Rejects(t *testing.T) {
	s := newServer()
	ctx := context.Background()
	if _, err := s.Post(ctx, "general", PostRequest{AuthorID: "u1", Content: "  "}); !errors.Is(err, ErrInvalid) {
		t.Errorf("blank: %v", err)
	}
	if _, err := s.Post(ctx, "general", PostRequest{AuthorID: "golem", Content: "spoof"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("bot author: %v", err)
	}
	if _, err := s.Post(ctx, "general", PostRequest{AuthorID: "u1", Content: "x", ReplyToID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing reply target: %v", err)
	}
}

func TestThreads(t *testing.T) {
	s := newServer()
	ctx := context.Background()
	starter, _ := s.Post(ctx, "general", PostRequest{AuthorID: "u1", Content: "topic"})
	<-s.Inbox()

	threadID, err := s.StartThread(starter.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	in, _ := s.Post(ctx, threadID, PostRequest{AuthorID: "u2", Content: "first"})
	<-s.Inbox()
	if !in.IsThread() || in.ParentChannelID != "general" {
		t.Fatalf("thread message = %+v", in)
	}

	got, err := s.FetchThreadStarter(ctx, threadID)
	if err != nil || got.ID != starter.ID {
		t.Fatalf("starter = %v, %v", got, err)
	}
	if _, err := s.FetchThreadStarter(ctx, "nope"); !errors.Is(err, golem.ErrPlatform) {
		t.Errorf("missing thread err = %v", err)
	}
}

func TestReplyAndEdit(t *testing.T) {
	s := newServer()
	ctx := context.Background()
	q, _ := s.Post(ctx, "general", PostRequest{AuthorID: "u1", Content: "question"})
	<-s.Inbox()

	events, unsub := s.Subscribe("general")
	defer unsub()

	r, err := s.Reply(ctx, q, platform.Embed{Description: platform.Placeholder, State: platform.StateInProgress})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Edit(ctx, r, platform.Embed{Description: "answer", State: platform.StateComplete}); err != nil {
		t.Fatal(err)
	}

	created, edited := <-events, <-events
	if created.Type != EventCreated || edited.Type != EventEdited {
		t.Fatalf("events = %s, %s", created.Type, edited.Type)
	}
	if edited.Message.Embed.Description != "answer" {
		t.Errorf("edited = %+v", edited.Message.Embed)
	}

	stored, _ := s.FetchMessage(ctx, "general", r.ID)
	if !stored.AuthorIsBot || stored.ReplyToID != q.ID || stored.Embed.State != platform.StateComplete {
		t.Errorf("stored = %+v", stored)
	}
	if err := s.Edit(ctx, q, platform.Embed{}); !errors.Is(err, golem.ErrPlatform) {
		t.Errorf("editing a person's message: %v", err)
	}
}

func TestHTTP_PostAndGet(t *testing.T) {
	s := newServer()
	e := echo.New()
	s.Register(e)

	req := httptest.NewRequest(http.MethodPost, "/channels/general/messages",
		strings.NewReader(`{"author_id":"u1","content":"<@golem> hello"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("post status = %d: %s", rec.Code, rec.Body)
	}
	var m platform.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	<-s.Inbox()

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/channels/general/messages/"+m.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/channels/other/messages/"+m.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-channel get status = %d", rec.Code)
	}
}

func TestHTTP_EventStream(t *testing.T) {
	s := newServer()
	e := echo.New()
	s.Register(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/channels/general/events", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	// wait until the handler has subscribed
	for s.events.Subscribers("general") == 0 {
		time.Sleep(time.Millisecond)
	}
	if _, err := s.Post(ctx, "general", PostRequest{AuthorID: "u1", Content: "ping"}); err != nil {
		t.Fatal(err)
	}

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() && sc.Text() != "" {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 2 || lines[0] != "event: created" || !strings.Contains(lines[1], `"content":"ping"`) {
		t.Errorf("event = %q", lines)
	}
}

func TestWriteEvent_MultilineData(t *testing.T) {
	var b strings.Builder
	if err := writeEvent(&b, "edited", "a\nb"); err != nil {
		t.Fatal(err)
	}
	if b.String() != "event: edited\ndata: a\ndata: b\n\n" {
		t.Errorf("event = %q", b.String())
	}
}
