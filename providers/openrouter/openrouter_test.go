package openrouter_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inspirepan/golem"
	cc "github.com/inspirepan/golem/providers/chatcompletion"
	"github.com/inspirepan/golem/providers/openrouter"
	"github.com/tidwall/gjson"
)

func TestNew_RoutingAndTitle(t *testing.T) {
	var (
		body  gjson.Result
		title string
		auth  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = gjson.ParseBytes(data)
		title = r.Header.Get("X-Title")
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","created":1,"model":"m",
		"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	p := openrouter.New("google/gemini-2.0-flash",
		openrouter.WithAPIKey("or-key"),
		openrouter.WithBaseURL(srv.URL),
		openrouter.WithTitle("golem"),
		openrouter.WithProviderSorting(openrouter.ProviderSortLatency),
		openrouter.WithProviderOrder("google-vertex"),
		openrouter.WithChatOption(cc.WithMaxRetries(0)),
	)
	res, err := p.Complete(context.Background(), golem.GenerateRequest{
		History: []golem.Message{golem.UserMessage{Parts: []golem.Part{golem.TextPart{Text: "hi"}}}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if golem.Text(res.Message.Parts) != "ok" {
		t.Errorf("message = %+v", res.Message)
	}
	if title != "golem" || auth != "Bearer or-key" {
		t.Errorf("headers: title=%q auth=%q", title, auth)
	}
	if body.Get("provider.sort").String() != "latency" || body.Get("provider.order.0").String() != "google-vertex" {
		t.Errorf("routing = %s", body.Get("provider").Raw)
	}
	if body.Get("model").String() != "google/gemini-2.0-flash" {
		t.Errorf("model = %s", body.Get("model").Raw)
	}
}
