package messages

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"max.ks1230/expense-tracker/internal/model/forecast"
	"max.ks1230/expense-tracker/internal/model/ledger"
)

const (
	commandParts = 2
	chartWidth   = 20
)

func parseCommand(text string) (cmd, arg string) {
	text = strings.TrimSpace(text)
	split := strings.SplitN(text, " ", commandParts)

	if len(split) == commandParts {
		return split[0], strings.TrimSpace(split[1])
	}
	if strings.HasPrefix(text, "/") {
		return text, ""
	}
	return "", text
}

// splitAmount takes the last field as the amount so that categories may
// contain spaces.
func splitAmount(arg string) (name string, amount float64, ok bool) {
	fields := strings.Fields(arg)
	if len(fields) < commandParts {
		return "", 0, false
	}
	amount, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return "", 0, false
	}
	return strings.Join(fields[:len(fields)-1], " "), amount, true
}

func formatEvaluation(e ledger.Evaluation) string {
	limit, ok := e.Budget.Amount()
	if !ok {
		return fmt.Sprintf("%s: $%.2f (no budget)", e.Category, e.Spent)
	}
	return fmt.Sprintf("%s: $%.2f / $%.2f (%.0f%%) %s", e.Category, e.Spent, limit, e.Percent(), e.Status)
}

func formatPrediction(p forecast.Prediction) string {
	line := fmt.Sprintf("%s: $%.2f to $%.2f (mean $%.2f, median $%.2f, %d weeks)",
		p.Category, p.Low, p.High, p.Mean, p.Median, p.Weeks)
	if p.Skipped > 0 {
		line += fmt.Sprintf(", %d unreadable skipped", p.Skipped)
	}
	return line
}

// formatChart renders spent and budget bars scaled to the largest value.
func formatChart(points []ledger.ChartPoint) string {
	top := 0.0
	for _, p := range points {
		top = math.Max(top, math.Max(p.Spent, p.Budget))
	}
	if top == 0 {
		return noExpensesMessage
	}

	res := make([]string, 0, len(points)*3)
	for _, p := range points {
		res = append(res,
			p.Category.String(),
			fmt.Sprintf("  spent  %s $%.2f", bar(p.Spent, top), p.Spent),
		)
		if p.Budget > 0 {
			res = append(res, fmt.Sprintf("  budget %s $%.2f", bar(p.Budget, top), p.Budget))
		}
	}
	return strings.Join(res, "\n")
}

func bar(v, top float64) string {
	n := int(math.Round(v / top * chartWidth))
	return strings.Repeat("█", n) + strings.Repeat("·", chartWidth-n)
}
