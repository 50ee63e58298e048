package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"backoffice/internal/application/workspace"
)

type sessionPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type visitorSweeper interface {
	SweepVisitors() int
}

// sweeper drops expired sessions, idle workspaces and idle rate limiter entries.
type sweeper struct {
	Sessions   sessionPurger
	Workspaces *workspace.Registry
	Visitors   visitorSweeper
	IdleTTL    time.Duration
	Logger     *zap.Logger
}

// sweep runs one pass; failures are logged and retried on the next tick.
func (s sweeper) sweep(ctx context.Context, now time.Time) {
	purged, err := s.Sessions.PurgeExpired(ctx, now)
	if err != nil {
		s.Logger.Warn("session_purge_failed", zap.Error(err))
	}
	evicted := s.Workspaces.EvictIdle(now, s.IdleTTL)
	visitors := s.Visitors.SweepVisitors()
	if purged > 0 || evicted > 0 || visitors > 0 {
		s.Logger.Info("sweep",
			zap.Int64("sessions", purged),
			zap.Int("workspaces", evicted),
			zap.Int("visitors", visitors))
	}
}

func runSweeper(ctx context.Context, interval time.Duration, s sweeper) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}
