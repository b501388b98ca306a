package ledger

import (
	"fmt"

	"max.ks1230/expense-tracker/internal/entity/category"
)

type Status int

const (
	Unmonitored Status = iota
	OK
	Warning
	OverBudget
)

func (s Status) String() string {
	switch s {
	case Unmonitored:
		return "unmonitored"
	case OK:
		return "ok"
	case Warning:
		return "warning"
	case OverBudget:
		return "over_budget"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Evaluate classifies spending against a budget. Spending exactly at the
// budget is not over it.
func Evaluate(spent float64, budget Budget, threshold float64) Status {
	limit, ok := budget.Amount()
	if !ok {
		return Unmonitored
	}
	switch {
	case spent > limit:
		return OverBudget
	case spent >= threshold*limit:
		return Warning
	default:
		return OK
	}
}

// Evaluation is the status signal handed to the presentation layer after a
// mutation.
type Evaluation struct {
	Category category.Name
	Status   Status
	Spent    float64
	Budget   Budget
}

// Percent is spent/budget as a percentage, 0 when unmonitored.
func (e Evaluation) Percent() float64 {
	limit, ok := e.Budget.Amount()
	if !ok {
		return 0
	}
	return e.Spent / limit * 100
}

func (e Evaluation) Message() string {
	limit, _ := e.Budget.Amount()
	switch e.Status {
	case OverBudget:
		return fmt.Sprintf("OVERBUDGET! %s: $%.2f / $%.2f", e.Category, e.Spent, limit)
	case Warning:
		return fmt.Sprintf("WARNING: %s at %.0f%% (%.2f/%.2f)", e.Category, e.Percent(), e.Spent, limit)
	}
	return ""
}
