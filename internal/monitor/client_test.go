package monitor_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tamperestartuphub/coffeesituation/internal/monitor"
)

func newClient(url string) *monitor.Client {
	return monitor.NewClient(url, "test-token", "testnet", "1", 5*time.Second)
}

func TestAskCoffeeRelaysNotifyMessage(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Write([]byte(`{"status":"OK","notify":{"message":"Coffee is ready!","icon_emoji":":coffee:","username":"Coffee_Situation: pot 1"}}`))
	}))
	defer srv.Close()

	out, err := newClient(srv.URL).AskCoffee(context.Background(), monitor.Query{
		Channel:  "C1",
		Message:  "need coffee now",
		Username: "U1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != "Coffee is ready!" {
		t.Errorf("text = %q", out.Text)
	}
	if out.Notify == nil || out.Notify.IconEmoji != ":coffee:" {
		t.Errorf("notify metadata lost: %+v", out.Notify)
	}

	want := map[string]string{
		"api_token":   "test-token",
		"channel":     "C1",
		"network":     "testnet",
		"message":     "need coffee now",
		"username":    "U1",
		"app":         monitor.AppName,
		"app_version": "1",
	}
	for k, v := range want {
		if gotForm[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, gotForm[k], v)
		}
	}
}

func TestAskCoffeeEmptyResponseIsNoNotify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).AskCoffee(context.Background(), monitor.Query{})
	if !errors.Is(err, monitor.ErrNoNotify) {
		t.Fatalf("err = %v, want ErrNoNotify", err)
	}
}

// The watchdog queries from its own goroutine while the gateway renames the
// network on every reconnect; the race detector keeps this honest.
func TestSetNetworkDuringQueries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","notify":{"message":"ok"}}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			c.SetNetwork(fmt.Sprintf("net-%d", i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			if _, err := c.ProbeStatus(context.Background(), monitor.Query{Channel: "watchdog"}); err != nil {
				t.Errorf("probe %d: %v", i, err)
				return
			}
		}
	}()
	wg.Wait()
}

func TestQueryClassifiesRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).AskCoffee(context.Background(), monitor.Query{})
	var se *monitor.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if !se.RateLimited() {
		t.Errorf("429 not reported as rate limited")
	}
}

func TestQueryClassifiesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).AskCoffee(context.Background(), monitor.Query{})
	var se *monitor.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if se.RateLimited() {
		t.Errorf("502 reported as rate limited")
	}
}

func TestQueryUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := newClient(srv.URL).AskCoffee(context.Background(), monitor.Query{})
	if !errors.Is(err, monitor.ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
}

func TestQueryGarbageBodyIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).AskCoffee(context.Background(), monitor.Query{})
	if !errors.Is(err, monitor.ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
}

func TestProbeStatus(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"ok", `{"status":"OK","streaming":true}`, "The monitoring app is running"},
		{"degraded", `{"status":"NOT GREAT"}`, "The monitoring app returned response status: NOT GREAT"},
		{"empty", `{}`, "The monitoring app did not respond"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			out, err := newClient(srv.URL).ProbeStatus(context.Background(), monitor.Query{Channel: "C1"})
			if err != nil {
				t.Fatal(err)
			}
			if out.Text != tc.want {
				t.Errorf("text = %q, want %q", out.Text, tc.want)
			}
			if gotPath != "/status" {
				t.Errorf("path = %q, want /status", gotPath)
			}
		})
	}
}
