package forecasts

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/entity/event"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/forecast"
	"max.ks1230/expense-tracker/internal/model/history"
)

type historyStorage interface {
	LoadHistory(ctx context.Context, username string) (history.Record, error)
}

type forecastCache interface {
	CacheForecast(username string, batch forecast.Batch) error
}

// Warmer recomputes a user's predictions as soon as a week is closed so the
// next request is served from the cache.
type Warmer struct {
	storage historyStorage
	cache   forecastCache
}

func NewWarmer(storage historyStorage, cache forecastCache) *Warmer {
	return &Warmer{
		storage: storage,
		cache:   cache,
	}
}

func (w *Warmer) HandleWeekClosed(ctx context.Context, e event.WeekClosed) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "warmForecast")
	defer span.Finish()

	logger.Info("WarmForecast - start", zap.String("user", e.Username), zap.Int("week", e.OpenedWeek))
	defer logger.Info("WarmForecast - end", zap.String("user", e.Username))

	rec, err := w.storage.LoadHistory(ctx, e.Username)
	if err != nil {
		return errors.Wrap(err, "warm forecast")
	}
	h, err := history.FromRecord(rec)
	if err != nil {
		return errors.Wrap(err, "warm forecast")
	}
	// A batch for an older week is never served.
	if h.Week() < e.OpenedWeek {
		logger.Warn("stored history behind event, skipping",
			zap.String("user", e.Username), zap.Int("stored", h.Week()), zap.Int("event", e.OpenedWeek))
		return nil
	}

	preds, err := forecast.PredictAll(h)
	if errors.Is(err, forecast.ErrNoHistory) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "warm forecast")
	}
	return errors.Wrap(
		w.cache.CacheForecast(e.Username, forecast.Batch{Week: h.Week(), Predictions: preds}),
		"warm forecast",
	)
}
