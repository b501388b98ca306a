package rollover

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/logger"
)

type sessionSweeper interface {
	Sweep(ctx context.Context) int
}

type config interface {
	SweepInterval() time.Duration
}

// Sweeper closes calendar weeks of idle users who would otherwise only be
// rolled over on their next message.
type Sweeper struct {
	sessions sessionSweeper
	interval time.Duration
}

func NewSweeper(sessions sessionSweeper, config config) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		interval: config.SweepInterval(),
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	firstTick := make(chan struct{}, 1)
	firstTick <- struct{}{}

	logger.Info("Start sweeping weeks", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stop sweeping weeks")
			return
		case <-firstTick:
			s.sweepOnce(ctx)
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sweepWeeks")
	defer span.Finish()

	closed := s.sessions.Sweep(ctx)
	span.SetTag("closed", closed)
	if closed > 0 {
		logger.Info("weeks closed by sweep", zap.Int("closed", closed))
	}
}
