package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tamperestartuphub/coffeesituation/internal/jokes"
	"github.com/tamperestartuphub/coffeesituation/internal/monitor"
)

func testRouter(t *testing.T, handler http.HandlerFunc) (*Router, *fakeDirectory) {
	t.Helper()
	dir := &fakeDirectory{names: map[string]string{"U1": "martti"}}
	classifier := NewClassifier("U2", dir)

	var mc *monitor.Client
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		mc = monitor.NewClient(srv.URL, "tok", "testnet", "1", 5*time.Second)
	}
	return NewRouter("U0MAINT", classifier, mc, jokes.NewSource()), dir
}

func cmd(text string) Event {
	return Event{Type: "message", User: "U1", Channel: "C1", Text: text}
}

func TestRouteHelpWinsOverList(t *testing.T) {
	r, _ := testRouter(t, nil)
	reply, err := r.Route(context.Background(), IntentDirectCommand, cmd("<@U2> help me list things"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply.Text, "*Usage:*") {
		t.Errorf("expected help text, got %q", reply.Text)
	}
	if strings.Contains(reply.Text, "*Coffee keywords:*") {
		t.Error("list handler fired alongside help")
	}
}

func TestRouteHelpMentionsMaintainer(t *testing.T) {
	r, _ := testRouter(t, nil)
	reply, _ := r.Route(context.Background(), IntentDirectCommand, cmd("ohje"))
	if !strings.Contains(reply.Text, "<@U0MAINT>") {
		t.Errorf("help text missing maintainer mention:\n%s", reply.Text)
	}
}

func TestRouteList(t *testing.T) {
	r, _ := testRouter(t, nil)
	reply, err := r.Route(context.Background(), IntentDirectCommand, cmd("list please"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply.Text, "*Coffee keywords:*") {
		t.Errorf("expected keyword list, got %q", reply.Text)
	}
	for _, kw := range []string{"kahvi", "coffee", "sumppi"} {
		if !strings.Contains(reply.Text, kw) {
			t.Errorf("keyword list missing %q", kw)
		}
	}
}

func TestRouteStatus(t *testing.T) {
	r, _ := testRouter(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/status" {
			t.Errorf("path = %q", req.URL.Path)
		}
		w.Write([]byte(`{"status":"OK"}`))
	})
	reply, err := r.Route(context.Background(), IntentDirectCommand, cmd("tilanne?"))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "The monitoring app is running" {
		t.Errorf("text = %q", reply.Text)
	}
}

func TestRouteJokeOverrides(t *testing.T) {
	r, _ := testRouter(t, nil)
	reply, err := r.Route(context.Background(), IntentDirectCommand, cmd("tell a joke"))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text == "" {
		t.Fatal("empty joke")
	}
	if reply.IconEmoji != ":markusman2:" || reply.Username != "Höhöhö Situation" {
		t.Errorf("joke overrides = %q / %q", reply.IconEmoji, reply.Username)
	}
}

func TestRouteDirectCoffeeRecheck(t *testing.T) {
	r, _ := testRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"notify":{"message":"one fresh pot"}}`))
	})
	reply, err := r.Route(context.Background(), IntentDirectCommand, cmd("<@U2> kahvia?"))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "one fresh pot" {
		t.Errorf("text = %q", reply.Text)
	}
}

func TestRouteUnknownCommand(t *testing.T) {
	r, _ := testRouter(t, nil)
	reply, err := r.Route(context.Background(), IntentDirectCommand, cmd("<@U2> make tea"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(reply.Text, MsgUnrecognized) {
		t.Errorf("expected %q preamble, got %q", MsgUnrecognized, reply.Text)
	}
	if !strings.Contains(reply.Text, "*Usage:*") {
		t.Error("unknown command must include the help text")
	}
}

func TestRouteCoffeeQueryBypassesKeywordSearch(t *testing.T) {
	// Text contains "status" but the intent is CoffeeQuery; the keyword
	// search must not run.
	r, _ := testRouter(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/status" {
			t.Error("status probe fired for a coffee query")
		}
		w.Write([]byte(`{"notify":{"message":"pot status: full"}}`))
	})
	reply, err := r.Route(context.Background(), IntentCoffeeQuery, cmd("coffee status anyone"))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "pot status: full" {
		t.Errorf("text = %q", reply.Text)
	}
}
