// Package bot is the event-dispatch engine: it validates raw events,
// classifies intents, routes commands and keeps command execution
// single-flight.
package bot

// Event is one inbound notification from the messaging transport. It is
// decoded straight from the raw RTM JSON and consumed within a single loop
// iteration.
type Event struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	User    string `json:"user"`
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// Valid reports whether the event is a processable user message: a plain
// "message" or "message.im" with no subtype (edits, joins and bot posts
// carry one) and an originating user.
func (e Event) Valid() bool {
	if e.Type != "message" && e.Type != "message.im" {
		return false
	}
	if e.Subtype != "" {
		return false
	}
	if e.User == "" {
		return false
	}
	return true
}

// IsIM reports whether the event arrived over a direct message channel.
func (e Event) IsIM() bool {
	return e.Type == "message.im"
}
