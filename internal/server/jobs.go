package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	limiterCleanupSchedule = "@every 10m"
	limiterIdleTimeout     = 30 * time.Minute
	pruneTimeout           = time.Minute
)

// cronLogger sends robfig/cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// newScheduler registers the background jobs. The caller starts and stops it.
//
//	prune-sessions   cfg.PruneSchedule   delete expired session rows
//	limiter-cleanup  every 10 minutes    forget idle rate-limit buckets
func (s *Server) newScheduler() (*cron.Cron, error) {
	cl := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if s.config.AuthEnabled() {
		if _, err := c.AddFunc(s.config.PruneSchedule, s.pruneSessions); err != nil {
			return nil, fmt.Errorf("invalid SESSION_PRUNE_SCHEDULE %q: %w", s.config.PruneSchedule, err)
		}
	}

	if _, err := c.AddFunc(limiterCleanupSchedule, func() {
		if n := s.limiter.Cleanup(limiterIdleTimeout); n > 0 {
			s.logger.Debug("rate limiter cleaned up", slog.Int("removed", n))
		}
	}); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Server) pruneSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	n, err := s.auth.PruneSessions(ctx)
	if err != nil {
		s.logger.Error("pruning expired sessions failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("expired sessions pruned", slog.Int64("removed", n))
}
