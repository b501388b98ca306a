package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
	"max.ks1230/expense-tracker/internal/entity/category"
)

const DefaultThreshold = 0.9

var (
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrInvalidBudget = errors.New("budget must be a positive number")
)

// Ledger holds the in-progress week: running totals and budgets per category.
// It is not safe for concurrent use.
type Ledger struct {
	totals      map[category.Name]float64
	budgets     map[category.Name]Budget
	threshold   float64
	weekStarted time.Time
}

func New(threshold float64) *Ledger {
	return &Ledger{
		totals:    make(map[category.Name]float64),
		budgets:   make(map[category.Name]Budget),
		threshold: threshold,
	}
}

func (l *Ledger) Threshold() float64 {
	return l.threshold
}

func (l *Ledger) AddExpense(name category.Name, amount float64) (Evaluation, error) {
	if !isPositive(amount) || math.IsInf(l.totals[name]+amount, 0) {
		return Evaluation{}, ErrInvalidAmount
	}
	l.totals[name] += amount
	return l.Status(name), nil
}

func (l *Ledger) SetBudget(name category.Name, amount float64) (Evaluation, error) {
	b, err := Limit(amount)
	if err != nil {
		return Evaluation{}, err
	}
	l.budgets[name] = b
	return l.Status(name), nil
}

// ClearBudget turns off monitoring for the category.
func (l *Ledger) ClearBudget(name category.Name) Evaluation {
	l.budgets[name] = NoBudget()
	return l.Status(name)
}

func (l *Ledger) Status(name category.Name) Evaluation {
	spent := l.totals[name]
	b := l.budgets[name]
	return Evaluation{
		Category: name,
		Status:   Evaluate(spent, b, l.threshold),
		Spent:    spent,
		Budget:   b,
	}
}

// Reset hands the current totals over as a snapshot and clears them. Budgets
// are kept. It reports false when there is nothing to snapshot.
func (l *Ledger) Reset() (Snapshot, bool) {
	if len(l.totals) == 0 {
		return Snapshot{}, false
	}
	snap := Snapshot{totals: l.Totals()}
	for name := range l.totals {
		delete(l.totals, name)
	}
	return snap, true
}

func (l *Ledger) IsEmpty() bool {
	return len(l.totals) == 0
}

func (l *Ledger) WeekStarted() time.Time {
	return l.weekStarted
}

func (l *Ledger) StartWeek(t time.Time) {
	l.weekStarted = t
}

func (l *Ledger) Totals() map[category.Name]float64 {
	res := make(map[category.Name]float64, len(l.totals))
	for k, v := range l.totals {
		res[k] = v
	}
	return res
}

func (l *Ledger) Budgets() map[category.Name]Budget {
	res := make(map[category.Name]Budget, len(l.budgets))
	for k, v := range l.budgets {
		res[k] = v
	}
	return res
}

// Categories lists every category with a total or a budget entry, sorted.
func (l *Ledger) Categories() []category.Name {
	seen := make(map[category.Name]struct{}, len(l.totals)+len(l.budgets))
	for k := range l.totals {
		seen[k] = struct{}{}
	}
	for k := range l.budgets {
		seen[k] = struct{}{}
	}
	res := make([]category.Name, 0, len(seen))
	for k := range seen {
		res = append(res, k)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Summary evaluates every known category, sorted by name.
func (l *Ledger) Summary() []Evaluation {
	cats := l.Categories()
	res := make([]Evaluation, 0, len(cats))
	for _, c := range cats {
		res = append(res, l.Status(c))
	}
	return res
}

type ChartPoint struct {
	Category category.Name
	Spent    float64
	Budget   float64
}

// ChartData pairs spending with the budget per category for a grouped bar
// chart; unmonitored categories have a zero budget bar.
func (l *Ledger) ChartData() []ChartPoint {
	cats := l.Categories()
	res := make([]ChartPoint, 0, len(cats))
	for _, c := range cats {
		limit, _ := l.budgets[c].Amount()
		res = append(res, ChartPoint{Category: c, Spent: l.totals[c], Budget: limit})
	}
	return res
}

func (l *Ledger) Clone() *Ledger {
	return &Ledger{
		totals:      l.Totals(),
		budgets:     l.Budgets(),
		threshold:   l.threshold,
		weekStarted: l.weekStarted,
	}
}

// Snapshot is the frozen totals of a closed week.
type Snapshot struct {
	totals map[category.Name]float64
}

func (s Snapshot) Totals() map[category.Name]float64 {
	res := make(map[category.Name]float64, len(s.totals))
	for k, v := range s.totals {
		res[k] = v
	}
	return res
}

func (s Snapshot) Len() int {
	return len(s.totals)
}

func (s Snapshot) Total() float64 {
	total := 0.0
	for _, v := range s.totals {
		total += v
	}
	return total
}
