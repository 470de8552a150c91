package bot

import (
	"strings"

	"github.com/tamperestartuphub/coffeesituation/internal/monitor"
)

// ReplyColor is the attachment sidebar color of every bot reply.
const ReplyColor = "#452d19"

// Reply is one outbound chat payload.
type Reply struct {
	Channel  string
	Text     string
	Fallback string
	Color    string

	// Display overrides, applied only when the monitoring service asked
	// for them. IconEmoji wins over IconURL when both are set.
	IconEmoji string
	IconURL   string
	Username  string

	UnfurlMedia bool
	UnfurlLinks bool
}

// NewReply builds a reply for channel with the derived fallback text and
// optional notify overrides.
func NewReply(channel, text string, meta *monitor.Notify) Reply {
	r := Reply{
		Channel:  channel,
		Text:     text,
		Fallback: FallbackText(text),
		Color:    ReplyColor,
	}
	if meta == nil {
		return r
	}
	if meta.IconEmoji != "" {
		r.IconEmoji = meta.IconEmoji
	} else if meta.IconURL != "" {
		r.IconURL = meta.IconURL
	}
	if meta.Username != "" {
		r.Username = meta.Username
	}
	if meta.UnfurlMedia != nil {
		r.UnfurlMedia = *meta.UnfurlMedia
	}
	if meta.UnfurlLinks != nil {
		r.UnfurlLinks = *meta.UnfurlLinks
	}
	return r
}

// FallbackText degrades formatted text for clients without rich rendering:
// newlines become ", " separators, and a colon-terminated line followed by
// the next one collapses to a single ": " separator.
func FallbackText(text string) string {
	fallback := strings.Join(strings.Split(text, "\n"), ", ")
	return strings.ReplaceAll(fallback, ":, ", ": ")
}
