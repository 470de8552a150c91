// Package watch periodically probes the monitoring service status endpoint
// and logs availability transitions. It never posts to chat.
package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/tamperestartuphub/coffeesituation/internal/monitor"
)

// DefaultInterval is the default probe interval.
const DefaultInterval = 5 * time.Minute

// Prober runs the status probe.
type Prober interface {
	ProbeStatus(ctx context.Context, q monitor.Query) (*monitor.Outcome, error)
}

// Service is the status watchdog.
type Service struct {
	prober   Prober
	interval time.Duration

	probed bool
	up     bool
}

// NewService creates a watchdog probing at the given interval.
func NewService(prober Prober, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{prober: prober, interval: interval}
}

// Run probes until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	slog.Info("status watchdog started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("status watchdog stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	out, err := s.prober.ProbeStatus(ctx, monitor.Query{
		Channel:  "watchdog",
		Username: "watchdog",
		Message:  "status",
	})
	up := err == nil && out.Status == "OK"

	// Log only on the first probe and on transitions.
	switch {
	case !s.probed && up:
		slog.Info("monitoring app is up")
	case !s.probed && !up:
		slog.Warn("monitoring app is down", "err", err)
	case up && !s.up:
		slog.Info("monitoring app recovered")
	case !up && s.up:
		slog.Warn("monitoring app went down", "err", err)
	}
	s.probed = true
	s.up = up
}
