package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/tamperestartuphub/coffeesituation/internal/monitor"
)

// Session is what the engine needs from a live connection: batches of raw
// events in, replies and typing hints out.
type Session interface {
	// Poll returns the events buffered since the last call without
	// blocking. An error is fatal to the session and aborts the loop.
	Poll() ([]Event, error)
	// Post sends a reply. The engine is the only caller.
	Post(ctx context.Context, r Reply) error
	// Typing hints that a command is being worked on. Best effort.
	Typing(channel string)
}

// Engine is the top-level driver: poll, validate, classify, route, respond.
type Engine struct {
	session    Session
	classifier *Classifier
	router     *Router
	readDelay  time.Duration
	debug      bool

	// busy is the single-flight guard: at most one command is mid-dispatch
	// at a time, and no new batch is polled while it is held. Every
	// dispatch path clears it before returning to the loop.
	busy atomic.Bool
}

// Config holds the engine wiring.
type Config struct {
	Session    Session
	Classifier *Classifier
	Router     *Router
	// ReadDelay is the fixed poll interval. Defaults to 3s.
	ReadDelay time.Duration
	// Debug enables stack traces on dispatch panics.
	Debug bool
}

// New creates an engine.
func New(cfg Config) *Engine {
	if cfg.ReadDelay <= 0 {
		cfg.ReadDelay = 3 * time.Second
	}
	return &Engine{
		session:    cfg.Session,
		classifier: cfg.Classifier,
		router:     cfg.Router,
		readDelay:  cfg.ReadDelay,
		debug:      cfg.Debug,
	}
}

// Run polls at a fixed rate until ctx is cancelled or the session turns
// fatal. Returns nil on cancellation, the poll error otherwise.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("listening", "read_delay", e.readDelay)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !e.busy.Load() {
			batch, err := e.session.Poll()
			if err != nil {
				return fmt.Errorf("poll: %w", err)
			}
			e.dispatchBatch(ctx, batch)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.readDelay):
		}
	}
}

// dispatchBatch handles at most one event per batch: after the first event
// that validates and classifies to a real intent, the rest of the batch is
// dropped. The next poll picks the conversation back up a moment later.
func (e *Engine) dispatchBatch(ctx context.Context, batch []Event) {
	for _, ev := range batch {
		if !ev.Valid() {
			continue
		}
		intent := e.classifier.Classify(ctx, ev)
		if intent == IntentNone {
			continue
		}
		slog.Info("dispatching", "intent", intent.String(), "channel", ev.Channel, "user", ev.User, "preview", preview(ev.Text))
		e.dispatch(ctx, ev, intent)
		return
	}
}

// dispatch runs one command under the single-flight guard. The guard is
// released on every exit path, panics included, and a panicking handler
// still produces a user-visible reply.
func (e *Engine) dispatch(ctx context.Context, ev Event, intent Intent) {
	if !e.busy.CompareAndSwap(false, true) {
		return
	}
	defer e.busy.Store(false)

	defer func() {
		if r := recover(); r != nil {
			if e.debug {
				slog.Error("dispatch panicked", "panic", r, "stack", string(debug.Stack()))
			} else {
				slog.Error("dispatch panicked", "panic", r)
			}
			e.send(ctx, NewReply(ev.Channel, MsgBusy, nil))
		}
	}()

	e.session.Typing(ev.Channel)

	reply, err := e.router.Route(ctx, intent, ev)
	if err != nil {
		slog.Warn("command failed", "intent", intent.String(), "err", err)
		e.send(ctx, NewReply(ev.Channel, errorText(err), nil))
		return
	}
	if reply != nil {
		e.send(ctx, *reply)
	}
}

func (e *Engine) send(ctx context.Context, r Reply) {
	if err := e.session.Post(ctx, r); err != nil {
		slog.Error("send failed", "channel", r.Channel, "err", err)
	}
}

// errorText maps a handled dispatch error to its user-visible reply text.
func errorText(err error) string {
	var se *monitor.StatusError
	switch {
	case errors.Is(err, monitor.ErrUnreachable):
		return "The monitoring app did not respond"
	case errors.As(err, &se) && se.RateLimited():
		return MsgConnectionError + ", Message: Too many requests at a time!"
	default:
		return MsgBusy
	}
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) > 80 {
		return string(runes[:80]) + "..."
	}
	return s
}
