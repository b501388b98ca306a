package tracker

import (
	"context"
	"sort"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/entity/event"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/forecast"
	"max.ks1230/expense-tracker/internal/model/history"
	"max.ks1230/expense-tracker/internal/model/ledger"
	"max.ks1230/expense-tracker/internal/model/rollover"
)

var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageError reports a failed read or write. After a failed write the
// in-memory state of the session is left as it was before the operation;
// after a failed read no session is opened.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + ErrStorageUnavailable.Error() + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// Session holds one user's ledger and history. All methods are safe for
// concurrent use.
type Session struct {
	svc      *Service
	username string

	mu      sync.Mutex
	ledger  *ledger.Ledger
	history *history.History
}

func (s *Session) Username() string {
	return s.username
}

func (s *Session) AddExpense(ctx context.Context, name category.Name, amount float64) (ledger.Evaluation, error) {
	eval, err := s.mutate(ctx, "addExpense", func(l *ledger.Ledger) (ledger.Evaluation, error) {
		return l.AddExpense(name, amount)
	})
	if err == nil {
		observeExpense(eval)
	}
	return eval, err
}

func (s *Session) SetBudget(ctx context.Context, name category.Name, amount float64) (ledger.Evaluation, error) {
	return s.mutate(ctx, "setBudget", func(l *ledger.Ledger) (ledger.Evaluation, error) {
		return l.SetBudget(name, amount)
	})
}

func (s *Session) ClearBudget(ctx context.Context, name category.Name) (ledger.Evaluation, error) {
	return s.mutate(ctx, "clearBudget", func(l *ledger.Ledger) (ledger.Evaluation, error) {
		return l.ClearBudget(name), nil
	})
}

func (s *Session) Status(name category.Name) ledger.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Status(name)
}

func (s *Session) Summary() []ledger.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Summary()
}

func (s *Session) ChartData() []ledger.ChartPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ChartData()
}

// Week is the index of the week currently being recorded.
func (s *Session) Week() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Week()
}

// Categories lists the default categories followed by every other category
// the user has spent on, budgeted or recorded in the history.
func (s *Session) Categories() []category.Name {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[category.Name]struct{})
	res := make([]category.Name, 0, len(category.Defaults))
	for _, c := range category.Defaults {
		seen[c] = struct{}{}
		res = append(res, c)
	}
	var extra []category.Name
	for _, c := range append(s.ledger.Categories(), s.history.Categories()...) {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		extra = append(extra, c)
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(res, extra...)
}

func (s *Session) CorruptCells() []history.CorruptCell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CorruptCells()
}

// Rollover closes the current week. When persisting fails nothing changes.
func (s *Session) Rollover(ctx context.Context) (rollover.Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "rollover")
	defer span.Finish()

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.rollover(ctx, false)
	if err != nil && !errors.Is(err, rollover.ErrAlreadyEmpty) {
		ext.Error.Set(span, true)
	}
	return res, err
}

// Predict projects one category from the closed weeks.
func (s *Session) Predict(name category.Name) (forecast.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := forecast.Predict(s.history.Series(name))
	if err != nil {
		return forecast.Prediction{}, err
	}
	p.Category = name
	return p, nil
}

// PredictAll projects every category, served from the cache while the
// history has not moved past the cached week.
func (s *Session) PredictAll(ctx context.Context) ([]forecast.Prediction, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "predictAll")
	defer span.Finish()

	s.mu.Lock()
	defer s.mu.Unlock()

	week := s.history.Week()
	if cache := s.svc.cache; cache != nil {
		batch, err := cache.GetForecast(s.username)
		if err == nil && batch.Week == week {
			return batch.Predictions, nil
		}
		if err != nil {
			logger.Debug("forecast cache miss", zap.String("user", s.username), zap.Error(err))
		}
	}

	preds, err := forecast.PredictAll(s.history)
	if err != nil {
		return nil, err
	}
	if cache := s.svc.cache; cache != nil {
		if err = cache.CacheForecast(s.username, forecast.Batch{Week: week, Predictions: preds}); err != nil {
			logger.Warn("failed to cache forecast", zap.String("user", s.username), zap.Error(err))
		}
	}
	return preds, nil
}

// mutate applies fn to a copy of the ledger and swaps it in only once the
// copy has been saved.
func (s *Session) mutate(ctx context.Context, op string, fn func(l *ledger.Ledger) (ledger.Evaluation, error)) (ledger.Evaluation, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rolloverIfDue(ctx)

	l := s.ledger.Clone()
	eval, err := fn(l)
	if err != nil {
		return ledger.Evaluation{}, err
	}
	if err = s.svc.storage.SaveLedger(ctx, s.username, l.Record()); err != nil {
		ext.Error.Set(span, true)
		logger.Error("failed to save ledger", zap.String("user", s.username), zap.String("op", op), zap.Error(err))
		return ledger.Evaluation{}, &StorageError{Op: op, Err: err}
	}
	s.ledger = l
	return eval, nil
}

// rolloverIfDue closes the week when the calendar has moved past the week the
// ledger was started in. A week with no spending is restarted without adding
// a history column. It reports whether a week was closed.
func (s *Session) rolloverIfDue(ctx context.Context) bool {
	if !s.svc.autoRollover {
		return false
	}
	current := s.svc.weekStart(s.svc.clock())
	if !current.After(s.ledger.WeekStarted()) {
		return false
	}

	if s.ledger.IsEmpty() {
		s.ledger.StartWeek(current)
		return false
	}
	res, err := s.rollover(ctx, true)
	if err != nil {
		logger.Error("calendar rollover failed", zap.String("user", s.username), zap.Error(err))
		return false
	}
	logger.Info("calendar rollover",
		zap.String("user", s.username),
		zap.Int("closed", res.ClosedWeek),
		zap.Int("opened", res.OpenedWeek),
	)
	return true
}

func (s *Session) rollover(ctx context.Context, auto bool) (rollover.Result, error) {
	l := s.ledger.Clone()
	h := s.history.Clone()

	res, err := rollover.Apply(l, h)
	if err != nil {
		return rollover.Result{}, err
	}
	l.StartWeek(s.svc.weekStart(s.svc.clock()))

	if err = s.svc.commitRollover(ctx, s.username, l.Record(), h.Record(), s.history.Record()); err != nil {
		logger.Error("failed to persist rollover", zap.String("user", s.username), zap.Error(err))
		return rollover.Result{}, &StorageError{Op: "rollover", Err: err}
	}
	s.ledger, s.history = l, h
	observeRollover(auto)

	if cache := s.svc.cache; cache != nil {
		if err = cache.InvalidateForecast(s.username); err != nil {
			logger.Debug("forecast cache not invalidated", zap.String("user", s.username), zap.Error(err))
		}
	}
	if s.svc.events != nil {
		e := event.WeekClosed{
			Username:   s.username,
			ClosedWeek: res.ClosedWeek,
			OpenedWeek: res.OpenedWeek,
			Totals:     make(map[string]float64, res.Snapshot.Len()),
			ClosedAt:   s.svc.clock(),
		}
		for c, v := range res.Snapshot.Totals() {
			e.Totals[c.String()] = v
		}
		if err = s.svc.events.PublishWeekClosed(ctx, e); err != nil {
			logger.Warn("failed to publish week closed", zap.String("user", s.username), zap.Error(err))
		}
	}
	return res, nil
}
