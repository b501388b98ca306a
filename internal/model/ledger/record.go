package ledger

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
	"max.ks1230/expense-tracker/internal/entity/category"
)

// Record is the persisted shape of a ledger. A nil budget means the category
// is not monitored.
type Record struct {
	Totals      map[string]float64  `json:"weekly_totals"`
	Budgets     map[string]*float64 `json:"weekly_budgets"`
	WeekStarted time.Time           `json:"week_started,omitempty"`
}

func (l *Ledger) Record() Record {
	rec := Record{
		Totals:      make(map[string]float64, len(l.totals)),
		Budgets:     make(map[string]*float64, len(l.budgets)),
		WeekStarted: l.weekStarted,
	}
	for k, v := range l.totals {
		rec.Totals[k.String()] = v
	}
	for k, b := range l.budgets {
		if amount, ok := b.Amount(); ok {
			amount := amount
			rec.Budgets[k.String()] = &amount
		} else {
			rec.Budgets[k.String()] = nil
		}
	}
	return rec
}

// FromRecord rebuilds a ledger from storage. Keys are canonicalized, so
// records written with mixed casing are merged: totals are summed and, of the
// budgets set under one name, the lowest limit wins.
func FromRecord(rec Record, threshold float64) (*Ledger, error) {
	l := New(threshold)
	l.weekStarted = rec.WeekStarted
	for _, raw := range sortedKeys(rec.Totals) {
		v := rec.Totals[raw]
		name, err := category.Parse(raw)
		if err != nil {
			return nil, errors.Wrap(err, "restore ledger")
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Wrap(fmt.Errorf("total %v for %s", v, name), "restore ledger")
		}
		l.totals[name] += v
	}
	for _, raw := range sortedKeys(rec.Budgets) {
		v := rec.Budgets[raw]
		name, err := category.Parse(raw)
		if err != nil {
			return nil, errors.Wrap(err, "restore ledger")
		}
		if v == nil {
			if _, ok := l.budgets[name]; !ok {
				l.budgets[name] = NoBudget()
			}
			continue
		}
		b, err := Limit(*v)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("restore budget for %s", name))
		}
		if prev, ok := l.budgets[name].Amount(); ok && prev <= *v {
			continue
		}
		l.budgets[name] = b
	}
	return l, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
