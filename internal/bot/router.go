package bot

import (
	"context"
	"strings"

	"github.com/tamperestartuphub/coffeesituation/internal/jokes"
	"github.com/tamperestartuphub/coffeesituation/internal/monitor"
)

// User-visible error texts.
const (
	// MsgBusy is the generic failure reply.
	MsgBusy = "Sorry, the bot is busy solving a random encounter"
	// MsgConnectionError prefixes transport-flavored failures.
	MsgConnectionError = "Sorry, there was an error in forming the QEC (Quantum Entanglement Communicators) connection"
	// MsgUnrecognized leads the help text for unknown direct commands.
	MsgUnrecognized = "Sorry, the command not recognized"
)

// Display overrides for the joke reply.
const (
	jokeIconEmoji = ":markusman2:"
	jokeUsername  = "Höhöhö Situation"
)

// Router maps a classified intent to exactly one handler. Handlers build a
// Reply but never send it; the engine owns the single outbound choke point.
type Router struct {
	maintainer string
	classifier *Classifier
	monitor    *monitor.Client
	jokes      *jokes.Source
}

// NewRouter creates a router. maintainer is the user id mentioned in the
// help text.
func NewRouter(maintainer string, classifier *Classifier, mc *monitor.Client, js *jokes.Source) *Router {
	return &Router{
		maintainer: maintainer,
		classifier: classifier,
		monitor:    mc,
		jokes:      js,
	}
}

// Route selects and runs the handler for intent. A CoffeeQuery goes straight
// to the coffee handler; a DirectCommand is resolved by first-match-wins
// substring search over the lower-cased text, in fixed priority order.
func (r *Router) Route(ctx context.Context, intent Intent, ev Event) (*Reply, error) {
	if intent == IntentCoffeeQuery {
		return r.askCoffee(ctx, ev)
	}

	msg := strings.ToLower(ev.Text)
	switch {
	case containsAny(msg, "help", "ohje"):
		return r.helpReply(ev.Channel, ""), nil
	case containsAny(msg, "list", "listaa"):
		return r.keywordsReply(ev.Channel), nil
	case containsAny(msg, "status", "tilanne"):
		return r.probeStatus(ctx, ev)
	case containsAny(msg, "joke", "vitsi"):
		return r.jokeReply(ev.Channel), nil
	case r.classifier.WantsCoffee(ctx, ev.User, ev.Text):
		return r.askCoffee(ctx, ev)
	default:
		return r.helpReply(ev.Channel, MsgUnrecognized), nil
	}
}

func (r *Router) askCoffee(ctx context.Context, ev Event) (*Reply, error) {
	out, err := r.monitor.AskCoffee(ctx, monitor.Query{
		Channel:  ev.Channel,
		Message:  ev.Text,
		Username: ev.User,
	})
	if err != nil {
		return nil, err
	}
	reply := NewReply(ev.Channel, out.Text, out.Notify)
	return &reply, nil
}

func (r *Router) probeStatus(ctx context.Context, ev Event) (*Reply, error) {
	out, err := r.monitor.ProbeStatus(ctx, monitor.Query{
		Channel:  ev.Channel,
		Message:  ev.Text,
		Username: ev.User,
	})
	if err != nil {
		return nil, err
	}
	reply := NewReply(ev.Channel, out.Text, nil)
	return &reply, nil
}

func (r *Router) helpReply(channel, errorMsg string) *Reply {
	lines := []string{
		"*Usage:*",
		"> - Help: Prints this usage text",
		"> - Status: Checks if the coffee situation monitoring device is online",
		"> - Joke: Well, why not?",
		"> - List: Prints accepted coffee related keywords",
		"> - `Coffee keyword`: Takes a photo of the current coffee situation",
		"> ",
		"> _Note: image url lasts max 2h, parts of the image are blurred_",
		"> _Maintenance: <@" + r.maintainer + ">_",
	}
	if errorMsg != "" {
		lines = append([]string{errorMsg}, lines...)
	}
	reply := NewReply(channel, strings.Join(lines, "\n"), nil)
	return &reply
}

func (r *Router) keywordsReply(channel string) *Reply {
	text := "*Coffee keywords:*\n> " +
		strings.Join(CoffeeKeywords, ", ") +
		"\n> _Note: Keyword matching is not strict_"
	reply := NewReply(channel, text, nil)
	return &reply
}

func (r *Router) jokeReply(channel string) *Reply {
	joke := r.jokes.Joke()
	if joke == jokes.OutOfJokes {
		reply := NewReply(channel, joke, nil)
		return &reply
	}
	reply := NewReply(channel, joke, &monitor.Notify{
		IconEmoji: jokeIconEmoji,
		Username:  jokeUsername,
	})
	return &reply
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
