package bot

import (
	"context"
	"log/slog"
	"strings"
)

// Intent is the classified purpose of an inbound message.
type Intent int

const (
	// IntentNone means the engine should not react.
	IntentNone Intent = iota
	// IntentDirectCommand means the message was addressed to the bot.
	IntentDirectCommand
	// IntentCoffeeQuery means the message mentioned coffee in open channel.
	IntentCoffeeQuery
)

func (i Intent) String() string {
	switch i {
	case IntentDirectCommand:
		return "direct-command"
	case IntentCoffeeQuery:
		return "coffee-query"
	default:
		return "none"
	}
}

// syntheticUserPrefix marks the relay identity the monitoring service posts
// under; reacting to it would loop the bot on its own notifications.
const syntheticUserPrefix = "Coffee_Situation:"

// Directory answers identity questions against the messaging backend.
type Directory interface {
	// UserName resolves a user id to its handle.
	UserName(ctx context.Context, id string) (string, error)
	// IsDirectChannel reports whether a channel id is a direct conversation.
	IsDirectChannel(ctx context.Context, channel string) (bool, error)
}

// Classifier turns validated events into intents.
type Classifier struct {
	selfID string
	dir    Directory
}

// NewClassifier creates a classifier for the bot identity selfID.
func NewClassifier(selfID string, dir Directory) *Classifier {
	return &Classifier{selfID: selfID, dir: dir}
}

// SetSelf updates the bot's own identity once the session self-check ran.
func (c *Classifier) SetSelf(id string) {
	c.selfID = id
}

// Classify decides how the engine should react to ev. Directory lookups may
// fail; failures are resolved conservatively so a flaky backend neither
// silences direct commands nor blocks a legitimate coffee request.
func (c *Classifier) Classify(ctx context.Context, ev Event) Intent {
	if ev.User == c.selfID {
		return IntentNone
	}
	if c.isDirect(ctx, ev) {
		return IntentDirectCommand
	}
	if c.WantsCoffee(ctx, ev.User, ev.Text) {
		return IntentCoffeeQuery
	}
	return IntentNone
}

// isDirect reports whether ev was addressed to the bot: a DM, a channel the
// backend cannot describe (treated as direct), or an explicit mention.
func (c *Classifier) isDirect(ctx context.Context, ev Event) bool {
	if ev.IsIM() {
		return true
	}
	direct, err := c.dir.IsDirectChannel(ctx, ev.Channel)
	if err != nil {
		slog.Warn("channel lookup failed, treating as direct", "channel", ev.Channel, "err", err)
		return true
	}
	if direct {
		return true
	}
	return strings.Contains(ev.Text, "<@"+c.selfID+">")
}

// WantsCoffee reports whether text is a coffee request from a real user.
// A failed user lookup does not block the request; only a confirmed
// synthetic relay identity does.
func (c *Classifier) WantsCoffee(ctx context.Context, userID, text string) bool {
	if !MentionsCoffee(text) {
		return false
	}
	name, err := c.dir.UserName(ctx, userID)
	if err != nil {
		slog.Warn("user lookup failed, assuming real user", "user", userID, "err", err)
		return true
	}
	return !strings.HasPrefix(name, syntheticUserPrefix)
}
