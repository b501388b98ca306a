package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/entity/event"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/forecast"
	"max.ks1230/expense-tracker/internal/model/history"
	"max.ks1230/expense-tracker/internal/model/ledger"
	"max.ks1230/expense-tracker/internal/model/storage"
)

var ErrCorruptState = errors.New("stored state is corrupt")

type Storage interface {
	LoadLedger(ctx context.Context, username string) (ledger.Record, error)
	SaveLedger(ctx context.Context, username string, rec ledger.Record) error
	LoadHistory(ctx context.Context, username string) (history.Record, error)
	SaveHistory(ctx context.Context, username string, rec history.Record) error
}

// rolloverCommitter is implemented by storages able to persist both documents
// of a rollover atomically.
type rolloverCommitter interface {
	CommitRollover(ctx context.Context, username string, l ledger.Record, h history.Record) error
}

type forecastCache interface {
	GetForecast(username string) (forecast.Batch, error)
	CacheForecast(username string, batch forecast.Batch) error
	InvalidateForecast(username string) error
}

type eventPublisher interface {
	PublishWeekClosed(ctx context.Context, e event.WeekClosed) error
}

type config interface {
	WarningThreshold() float64
	AutoRollover() bool
	WeekStartDay() time.Weekday
}

type Option func(s *Service)

func WithCache(cache forecastCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithEvents(publisher eventPublisher) Option {
	return func(s *Service) { s.events = publisher }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// Service hands out one Session per username. Sessions of different users
// never share state.
type Service struct {
	storage      Storage
	threshold    float64
	autoRollover bool
	weeks        *now.Config
	cache        forecastCache
	events       eventPublisher
	clock        func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(storage Storage, config config, opts ...Option) *Service {
	s := &Service{
		storage:      storage,
		threshold:    config.WarningThreshold(),
		autoRollover: config.AutoRollover(),
		weeks:        &now.Config{WeekStartDay: config.WeekStartDay()},
		clock:        time.Now,
		sessions:     make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns the user's session, loading it from storage on first use.
func (s *Service) Open(ctx context.Context, username string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[username]; ok {
		return sess, nil
	}

	logger.Info("Open session - start", zap.String("user", username))
	defer logger.Info("Open session - end", zap.String("user", username))

	l, err := s.loadLedger(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "open session")
	}
	h, err := s.loadHistory(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "open session")
	}
	for _, cell := range h.CorruptCells() {
		logger.Warn("history cell excluded from statistics",
			zap.String("user", username),
			zap.String("category", cell.Category.String()),
			zap.Int("week", cell.Week),
		)
	}

	sess := &Session{svc: s, username: username, ledger: l, history: h}
	if l.WeekStarted().IsZero() {
		l.StartWeek(s.weekStart(s.clock()))
	}
	sess.rolloverIfDue(ctx)
	s.sessions[username] = sess
	return sess, nil
}

// Close forgets the user's session; the next Open reloads it from storage.
func (s *Service) Close(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, username)
}

// Sweep closes the calendar week of every open session that is due. It
// returns the number of weeks closed.
func (s *Service) Sweep(ctx context.Context) int {
	if !s.autoRollover {
		return 0
	}

	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	closed := 0
	for _, sess := range sessions {
		sess.mu.Lock()
		if sess.rolloverIfDue(ctx) {
			closed++
		}
		sess.mu.Unlock()
	}
	return closed
}

func (s *Service) loadLedger(ctx context.Context, username string) (*ledger.Ledger, error) {
	rec, err := s.storage.LoadLedger(ctx, username)
	switch {
	case err == nil:
		l, err := ledger.FromRecord(rec, s.threshold)
		if err != nil {
			return nil, errors.Wrap(ErrCorruptState, err.Error())
		}
		return l, nil
	case errors.Is(err, storage.ErrNotFound):
		return ledger.New(s.threshold), nil
	case isCorrupt(err):
		return nil, errors.Wrap(ErrCorruptState, err.Error())
	default:
		logger.Warn("ledger unavailable", zap.String("user", username), zap.Error(err))
		return nil, &StorageError{Op: "load ledger", Err: err}
	}
}

func (s *Service) loadHistory(ctx context.Context, username string) (*history.History, error) {
	rec, err := s.storage.LoadHistory(ctx, username)
	switch {
	case err == nil:
		h, err := history.FromRecord(rec)
		if err != nil {
			return nil, errors.Wrap(ErrCorruptState, err.Error())
		}
		return h, nil
	case errors.Is(err, storage.ErrNotFound):
		return history.New(), nil
	case isCorrupt(err):
		return nil, errors.Wrap(ErrCorruptState, err.Error())
	default:
		logger.Warn("history unavailable", zap.String("user", username), zap.Error(err))
		return nil, &StorageError{Op: "load history", Err: err}
	}
}

func (s *Service) commitRollover(ctx context.Context, username string, l ledger.Record, h, prev history.Record) error {
	if c, ok := s.storage.(rolloverCommitter); ok {
		return c.CommitRollover(ctx, username, l, h)
	}

	if err := s.storage.SaveHistory(ctx, username, h); err != nil {
		return errors.Wrap(err, "save history")
	}
	if err := s.storage.SaveLedger(ctx, username, l); err != nil {
		if rbErr := s.storage.SaveHistory(ctx, username, prev); rbErr != nil {
			logger.Error("failed to restore history after ledger save failure",
				zap.String("user", username), zap.Int("week", prev.Week), zap.Error(rbErr))
		}
		return errors.Wrap(err, "save ledger")
	}
	return nil
}

func (s *Service) weekStart(t time.Time) time.Time {
	return s.weeks.With(t).BeginningOfWeek()
}

func isCorrupt(err error) bool {
	return errors.Is(err, storage.ErrCorrupt) || errors.Is(err, history.ErrCorruptHistory)
}
