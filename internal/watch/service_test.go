package watch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/tamperestartuphub/coffeesituation/internal/monitor"
)

type scriptedProber struct {
	answers []string // "OK", "BAD" or "err"
	calls   int
}

func (p *scriptedProber) ProbeStatus(context.Context, monitor.Query) (*monitor.Outcome, error) {
	answer := p.answers[p.calls%len(p.answers)]
	p.calls++
	if answer == "err" {
		return nil, errors.New("unreachable")
	}
	return &monitor.Outcome{Status: answer}, nil
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestTickLogsOnlyOnTransitions(t *testing.T) {
	buf := captureLogs(t)
	p := &scriptedProber{answers: []string{"OK", "OK", "err", "err", "OK"}}
	s := NewService(p, 0)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.tick(ctx)
	}

	logs := buf.String()
	if got := strings.Count(logs, "monitoring app is up"); got != 1 {
		t.Errorf("initial up logged %d times, want 1\n%s", got, logs)
	}
	if got := strings.Count(logs, "monitoring app went down"); got != 1 {
		t.Errorf("down transition logged %d times, want 1\n%s", got, logs)
	}
	if got := strings.Count(logs, "monitoring app recovered"); got != 1 {
		t.Errorf("recovery logged %d times, want 1\n%s", got, logs)
	}
}

func TestTickNonOKStatusIsDown(t *testing.T) {
	buf := captureLogs(t)
	p := &scriptedProber{answers: []string{"DEGRADED"}}
	s := NewService(p, 0)

	s.tick(context.Background())

	if !strings.Contains(buf.String(), "monitoring app is down") {
		t.Errorf("non-OK status not treated as down:\n%s", buf.String())
	}
}
