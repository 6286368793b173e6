package service

import (
	"context"
	"time"

	"banking_portal/internal/logger"
	"banking_portal/internal/repository"
)

const defaultPurgeInterval = 10 * time.Minute

// JanitorService purges expired sessions on a ticker.
type JanitorService struct {
	sessions repository.Sessions
	log      *logger.Logger
}

func NewJanitorService(sessions repository.Sessions, log *logger.Logger) *JanitorService {
	return &JanitorService{sessions: sessions, log: log}
}

// Run ticks at the given interval until ctx is canceled.
func (s *JanitorService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = defaultPurgeInterval
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.purge(ctx, now.UTC())
		}
	}
}

// purge deletes sessions that expired before now and returns how many went.
func (s *JanitorService) purge(ctx context.Context, now time.Time) int64 {
	n, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		if s.log != nil {
			s.log.Errorw("purge expired sessions", "error", err)
		}
		return 0
	}
	if n > 0 && s.log != nil {
		s.log.Infow("purged expired sessions", "count", n)
	}
	return n
}
