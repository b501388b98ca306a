package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/model/ledger"
)

var (
	expensesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expense_tracker",
			Subsystem: "ledger",
			Name:      "expenses_total",
		},
		[]string{"category"},
	)

	statusTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expense_tracker",
			Subsystem: "ledger",
			Name:      "status_total",
		},
		[]string{"status"},
	)

	rolloversTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expense_tracker",
			Subsystem: "history",
			Name:      "rollovers_total",
		},
		[]string{"trigger"},
	)
)

func observeExpense(e ledger.Evaluation) {
	expensesTotal.WithLabelValues(categoryLabel(e.Category)).Inc()
	statusTotal.WithLabelValues(e.Status.String()).Inc()
}

// categoryLabel folds user-defined categories into "other" to bound
// cardinality.
func categoryLabel(name category.Name) string {
	for _, d := range category.Defaults {
		if name == d {
			return d.String()
		}
	}
	return "other"
}

func observeRollover(auto bool) {
	trigger := "manual"
	if auto {
		trigger = "calendar"
	}
	rolloversTotal.WithLabelValues(trigger).Inc()
}
