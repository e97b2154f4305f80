package token

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper purges refresh records whose tokens have expired, so records do not
// pile up for tokens nobody can use any more.
type Sweeper struct {
	store    RefreshStore
	interval time.Duration
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewSweeper(store RefreshStore, interval time.Duration, logger *zap.SugaredLogger) *Sweeper {
	return &Sweeper{store: store, interval: interval, logger: logger, now: time.Now}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Warnw("refresh token sweep failed", "err", err)
		return 0, err
	}
	if n > 0 {
		s.logger.Infow("expired refresh tokens purged", "count", n)
	}
	return n, nil
}
