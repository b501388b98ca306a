package ledger

import (
	"fmt"
	"math"
)

// Budget is either NoBudget or a positive weekly Limit.
type Budget struct {
	amount float64
	set    bool
}

func NoBudget() Budget {
	return Budget{}
}

func Limit(amount float64) (Budget, error) {
	if !isPositive(amount) {
		return Budget{}, ErrInvalidBudget
	}
	return Budget{amount: amount, set: true}, nil
}

// Amount returns the limit and whether the category is monitored at all.
func (b Budget) Amount() (float64, bool) {
	return b.amount, b.set
}

func (b Budget) IsSet() bool {
	return b.set
}

func (b Budget) String() string {
	if !b.set {
		return "No budget set"
	}
	return fmt.Sprintf("Budget: $%.2f", b.amount)
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
