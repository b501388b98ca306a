package storage

import (
	"context"
	"sync"

	"max.ks1230/expense-tracker/internal/model/history"
	"max.ks1230/expense-tracker/internal/model/ledger"
)

type InMemStorage struct {
	mu        sync.Mutex
	ledgers   map[string]ledger.Record
	histories map[string]history.Record
}

func NewInMemStorage() *InMemStorage {
	return &InMemStorage{
		ledgers:   make(map[string]ledger.Record),
		histories: make(map[string]history.Record),
	}
}

func (s *InMemStorage) LoadLedger(_ context.Context, username string) (ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.ledgers[username]
	if !ok {
		return ledger.Record{}, ErrNotFound
	}
	return copyLedger(rec), nil
}

func (s *InMemStorage) SaveLedger(_ context.Context, username string, rec ledger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledgers[username] = copyLedger(rec)
	return nil
}

func (s *InMemStorage) LoadHistory(_ context.Context, username string) (history.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.histories[username]
	if !ok {
		return history.Record{}, ErrNotFound
	}
	return copyHistory(rec), nil
}

func (s *InMemStorage) SaveHistory(_ context.Context, username string, rec history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories[username] = copyHistory(rec)
	return nil
}

// CommitRollover stores both documents under one lock.
func (s *InMemStorage) CommitRollover(_ context.Context, username string, l ledger.Record, h history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledgers[username] = copyLedger(l)
	s.histories[username] = copyHistory(h)
	return nil
}

func copyLedger(rec ledger.Record) ledger.Record {
	res := ledger.Record{
		Totals:      make(map[string]float64, len(rec.Totals)),
		Budgets:     make(map[string]*float64, len(rec.Budgets)),
		WeekStarted: rec.WeekStarted,
	}
	for k, v := range rec.Totals {
		res.Totals[k] = v
	}
	for k, v := range rec.Budgets {
		if v != nil {
			b := *v
			v = &b
		}
		res.Budgets[k] = v
	}
	return res
}

func copyHistory(rec history.Record) history.Record {
	res := history.Record{Week: rec.Week, Series: make(map[string][]float64, len(rec.Series))}
	for k, s := range rec.Series {
		res.Series[k] = append([]float64(nil), s...)
	}
	return res
}
