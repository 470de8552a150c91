// Package slackrtm owns the live Slack session: rtm.connect, the websocket
// read loop, the identity self-check and the reconnect policy.
package slackrtm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/slack-go/slack"

	"github.com/tamperestartuphub/coffeesituation/internal/bot"
)

const (
	// eventBuffer sizes the queue between the socket reader and Poll.
	eventBuffer = 256
	// pingInterval keeps the RTM socket alive between event bursts.
	pingInterval = 30 * time.Second
)

// Identity is the authenticated bot identity from the auth.test self-check.
type Identity struct {
	UserID  string
	User    string
	Team    string
	TeamURL string
}

// Options configures a Session.
type Options struct {
	// StrictAuth aborts Connect when the auth.test self-check fails.
	// When false the failure is logged and the session continues with an
	// unverified identity.
	StrictAuth bool
	// ReconnectDelay is the fixed pause before re-engaging a dead
	// session. Defaults to 5s.
	ReconnectDelay time.Duration
	// Debug enables a stack trace on session teardown logs.
	Debug bool
}

// Session is one live RTM connection plus the Web API client behind it. It
// implements bot.Session and bot.Directory.
type Session struct {
	api  *slack.Client
	opts Options

	mu       sync.Mutex
	ws       *websocket.Conn
	identity Identity
	events   chan bot.Event
	readErr  chan error
	stopRead context.CancelFunc
	msgID    atomic.Int64
}

// New creates a disconnected session for the given bot token.
func New(token string, opts Options) *Session {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 5 * time.Second
	}
	return &Session{
		api:  slack.New(token),
		opts: opts,
	}
}

// Identity returns the authenticated identity. Zero until Connect ran the
// self-check.
func (s *Session) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Network derives the network name from the team URL by stripping the
// scheme and the slack.com suffix.
func (s *Session) Network() string {
	n := strings.TrimPrefix(s.Identity().TeamURL, "https://")
	return strings.TrimSuffix(n, ".slack.com/")
}

// Connect establishes the RTM session: rtm.connect for the socket URL, the
// auth.test self-check, then the websocket dial and reader startup.
func (s *Session) Connect(ctx context.Context) error {
	slog.Info("connecting to Slack RTM")
	_, wsURL, err := s.api.ConnectRTMContext(ctx)
	if err != nil {
		return fmt.Errorf("rtm connect: %w", err)
	}

	auth, err := s.api.AuthTestContext(ctx)
	if err != nil {
		if s.opts.StrictAuth {
			return fmt.Errorf("auth self-check: %w", err)
		}
		slog.Warn("auth self-check failed, continuing without verified identity", "err", err)
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial rtm socket: %w", err)
	}

	readCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.ws = ws
	s.stopRead = cancel
	s.events = make(chan bot.Event, eventBuffer)
	s.readErr = make(chan error, 1)
	if auth != nil {
		s.identity = Identity{
			UserID:  auth.UserID,
			User:    auth.User,
			Team:    auth.Team,
			TeamURL: auth.URL,
		}
	}
	s.mu.Unlock()

	go s.readLoop(ws, s.events, s.readErr)
	go s.pingLoop(readCtx, ws)

	slog.Info("Slack connection successful", "user", s.Identity().User, "team", s.Identity().Team)
	return nil
}

// Close tears the socket down. Safe to call on a dead session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopRead != nil {
		s.stopRead()
		s.stopRead = nil
	}
	if s.ws != nil {
		s.ws.Close()
		s.ws = nil
	}
}

// Run connects once and keeps the session alive around loop, the engine's
// poll cycle. The initial connect failure is returned as-is; a mid-session
// failure tears the socket down and reconnects after a fixed delay,
// iteratively and without bound.
func (s *Session) Run(ctx context.Context, loop func(context.Context) error) error {
	if err := s.Connect(ctx); err != nil {
		return err
	}
	for {
		err := loop(ctx)
		s.Close()
		if ctx.Err() != nil || err == nil {
			return nil
		}
		slog.Error("session aborted, re-engaging", "err", err, "delay", s.opts.ReconnectDelay)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.opts.ReconnectDelay):
			}
			if err := s.Connect(ctx); err == nil {
				break
			} else {
				slog.Error("re-engage failed", "err", err)
			}
		}
	}
}

// Poll drains the buffered events without blocking. A pending read error is
// fatal and surfaces here.
func (s *Session) Poll() ([]bot.Event, error) {
	s.mu.Lock()
	events, readErr := s.events, s.readErr
	s.mu.Unlock()
	if events == nil {
		return nil, fmt.Errorf("session not connected")
	}

	select {
	case err := <-readErr:
		return nil, err
	default:
	}

	var batch []bot.Event
	for {
		select {
		case ev := <-events:
			batch = append(batch, ev)
		default:
			return batch, nil
		}
	}
}

// Post sends a reply through chat.postMessage as a colored attachment with
// the derived fallback text.
func (s *Session) Post(ctx context.Context, r bot.Reply) error {
	params := slack.PostMessageParameters{
		Markdown:    true,
		Username:    r.Username,
		IconEmoji:   r.IconEmoji,
		IconURL:     r.IconURL,
		UnfurlMedia: r.UnfurlMedia,
		UnfurlLinks: r.UnfurlLinks,
	}
	_, _, err := s.api.PostMessageContext(ctx, r.Channel,
		slack.MsgOptionAttachments(slack.Attachment{
			Text:     r.Text,
			Fallback: r.Fallback,
			Color:    r.Color,
		}),
		slack.MsgOptionPostMessageParameters(params),
	)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

// Typing sends the RTM typing indicator. Best effort; failures are logged.
func (s *Session) Typing(channel string) {
	err := s.writeJSON(map[string]any{
		"id":      s.msgID.Add(1),
		"type":    "typing",
		"channel": channel,
		"user":    s.Identity().UserID,
	})
	if err != nil {
		slog.Debug("typing indicator failed", "channel", channel, "err", err)
	}
}

// UserName resolves a user id via users.info.
func (s *Session) UserName(ctx context.Context, id string) (string, error) {
	u, err := s.api.GetUserInfoContext(ctx, id)
	if err != nil {
		return "", fmt.Errorf("users.info %s: %w", id, err)
	}
	return u.Name, nil
}

// IsDirectChannel reports whether channel is a direct conversation, via
// conversations.info.
func (s *Session) IsDirectChannel(ctx context.Context, channel string) (bool, error) {
	ch, err := s.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channel,
	})
	if err != nil {
		return false, fmt.Errorf("conversations.info %s: %w", channel, err)
	}
	return ch.IsIM, nil
}

// readLoop pumps raw socket frames into the event queue until the socket
// dies. The fatal error lands in readErr for the next Poll to pick up.
func (s *Session) readLoop(ws *websocket.Conn, events chan bot.Event, readErr chan error) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			select {
			case readErr <- fmt.Errorf("rtm read: %w", err):
			default:
			}
			return
		}

		var ev bot.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Warn("unparseable rtm frame", "err", err)
			continue
		}
		if ev.Type == "" {
			continue // acks and hello frames
		}

		select {
		case events <- ev:
		default:
			slog.Warn("event buffer full, dropping", "type", ev.Type, "channel", ev.Channel)
		}
	}
}

// pingLoop keeps the socket alive with RTM-level pings.
func (s *Session) pingLoop(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.writeJSONTo(ws, map[string]any{
				"id":   s.msgID.Add(1),
				"type": "ping",
			})
			if err != nil {
				slog.Warn("rtm ping failed", "err", err)
				return
			}
		}
	}
}

func (s *Session) writeJSON(v any) error {
	s.mu.Lock()
	ws := s.ws
	s.mu.Unlock()
	if ws == nil {
		return fmt.Errorf("session not connected")
	}
	return s.writeJSONTo(ws, v)
}

func (s *Session) writeJSONTo(ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return ws.WriteMessage(websocket.TextMessage, data)
}
