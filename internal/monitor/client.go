// Package monitor talks to the external coffee monitoring service: the
// coffee-ask endpoint that snaps a photo of the pot, and its /status probe.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AppName identifies this client to the monitoring service.
const AppName = "Coffee Related Communication And Relations Facilitator"

// ErrUnreachable marks transport-level failures: name resolution, refused
// connections, timeouts, or an unparseable body.
var ErrUnreachable = errors.New("monitoring app did not respond")

// ErrNoNotify marks a well-formed 2xx response that still carries no
// notify.message. It is not a parse error; the service answered, just
// without anything to relay.
var ErrNoNotify = errors.New("monitoring response has no notify message")

// StatusError is a non-2xx answer from the monitoring service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("monitoring app returned HTTP %d", e.Code)
}

// RateLimited reports whether the service asked us to back off.
func (e *StatusError) RateLimited() bool {
	return e.Code == http.StatusTooManyRequests
}

// Query carries the per-request parameters of an outbound monitoring query.
// Token, network and app identity come from the client configuration.
type Query struct {
	Channel  string
	Message  string
	Username string
}

// Response is the parsed monitoring service answer. Missing fields are a
// valid-but-uninformative response, not an error.
type Response struct {
	Status string  `json:"status"`
	Notify *Notify `json:"notify"`
}

// Notify carries the relayed message plus optional display overrides.
type Notify struct {
	Message     string `json:"message"`
	IconEmoji   string `json:"icon_emoji"`
	IconURL     string `json:"icon_url"`
	Username    string `json:"username"`
	UnfurlMedia *bool  `json:"unfurl_media"`
	UnfurlLinks *bool  `json:"unfurl_links"`
}

// Outcome is what an Interpreter distilled from a Response: the reply text
// and, for the coffee path, the notify metadata to decorate it with.
type Outcome struct {
	Text   string
	Status string
	Notify *Notify
}

// Interpreter decides the reply for one kind of query.
type Interpreter interface {
	Interpret(resp *Response) (*Outcome, error)
}

// Client performs single-attempt queries against the monitoring service.
// Retrying is deliberately left to nobody: queries are idempotent and
// low-stakes, a missed one just means asking again in chat.
// Safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	appVersion string
	httpClient *http.Client

	// mu guards network, which the gateway rewrites on every reconnect
	// while the watchdog keeps querying.
	mu      sync.Mutex
	network string
}

// NewClient creates a monitoring client. network names the chat network the
// queries originate from (the Slack team, or "console" for the local TUI).
func NewClient(baseURL, token, network, appVersion string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		network:    network,
		appVersion: appVersion,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetNetwork updates the network name once the session identity is known.
func (c *Client) SetNetwork(network string) {
	if network == "" {
		return
	}
	c.mu.Lock()
	c.network = network
	c.mu.Unlock()
}

func (c *Client) networkName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.network
}

// AskCoffee runs the default coffee-ask query.
func (c *Client) AskCoffee(ctx context.Context, q Query) (*Outcome, error) {
	return c.Query(ctx, c.baseURL, q, coffeeInterpreter{})
}

// ProbeStatus runs the status-probe variant against the /status endpoint.
func (c *Client) ProbeStatus(ctx context.Context, q Query) (*Outcome, error) {
	return c.Query(ctx, c.baseURL+"/status", q, statusInterpreter{})
}

// Query posts q to endpoint and hands the parsed response to in. One
// attempt, no retries.
func (c *Client) Query(ctx context.Context, endpoint string, q Query, in Interpreter) (*Outcome, error) {
	qid := uuid.NewString()[:8]
	log := slog.With("query", qid)

	form := url.Values{
		"api_token":   {c.token},
		"channel":     {q.Channel},
		"network":     {c.networkName()},
		"message":     {q.Message},
		"username":    {q.Username},
		"app":         {AppName},
		"app_version": {c.appVersion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("monitoring query failed", "endpoint", endpoint, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if resp.StatusCode >= 400 {
		log.Warn("monitoring query rejected", "endpoint", endpoint, "status", resp.StatusCode)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Warn("monitoring response unparseable", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return in.Interpret(&parsed)
}

// coffeeInterpreter handles the default coffee-ask path. The response must
// contain notify.message; an empty-but-valid response is a failure.
type coffeeInterpreter struct{}

func (coffeeInterpreter) Interpret(resp *Response) (*Outcome, error) {
	if resp.Notify == nil || resp.Notify.Message == "" {
		slog.Debug("coffee query answered without notify message")
		return nil, ErrNoNotify
	}
	return &Outcome{
		Text:   resp.Notify.Message,
		Status: resp.Status,
		Notify: resp.Notify,
	}, nil
}

// statusInterpreter handles the /status probe. Any parsed response is an
// answer; only its status field decides the wording.
type statusInterpreter struct{}

func (statusInterpreter) Interpret(resp *Response) (*Outcome, error) {
	switch resp.Status {
	case "OK":
		return &Outcome{Text: "The monitoring app is running", Status: resp.Status}, nil
	case "":
		return &Outcome{Text: "The monitoring app did not respond"}, nil
	default:
		return &Outcome{
			Text:   "The monitoring app returned response status: " + resp.Status,
			Status: resp.Status,
		}, nil
	}
}
