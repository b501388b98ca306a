package messages

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/model/forecast"
	"max.ks1230/expense-tracker/internal/model/ledger"
	"max.ks1230/expense-tracker/internal/model/rollover"
	"max.ks1230/expense-tracker/internal/model/tracker"
)

const (
	dontUnderstandMessage = "I don't understand you :("
	helloMessage          = "Hello! I keep track of your weekly spending 💸"
	loveToTalkMessage     = "I would love to talk about it more! Send /help to see what I can do"
	noExpensesMessage     = "No expenses recorded this week"
	noHistoryMessage      = "Not enough history to predict yet. Close a week with /reset first"
	alreadyEmptyMessage   = "Nothing to reset: this week has no expenses"

	incorrectUsageMessage    = "That is an incorrect command usage"
	incorrectCategoryMessage = "Category name cannot be empty"
	incorrectExpenseMessage  = "Expense amount must be a positive number"
	incorrectBudgetMessage   = "Budget must be a positive number"
	cannotLoadMessage        = "Your saved data could not be read. Ask the admin to check it"
	cannotSaveMessage        = "Can't save your changes atm. Try later"
)

const (
	startCommand      = "/start"
	helpCommand       = "/help"
	expenseCommand    = "/expense"
	budgetCommand     = "/budget"
	noBudgetCommand   = "/nobudget"
	summaryCommand    = "/summary"
	resetCommand      = "/reset"
	predictCommand    = "/predict"
	chartCommand      = "/chart"
	categoriesCommand = "/categories"
)

var knownCommands = map[string]struct{}{
	startCommand: {}, helpCommand: {}, expenseCommand: {}, budgetCommand: {}, noBudgetCommand: {},
	summaryCommand: {}, resetCommand: {}, predictCommand: {}, chartCommand: {}, categoriesCommand: {},
}

var helpMessage = strings.Join([]string{
	expenseCommand + " <category> <amount> - record an expense",
	budgetCommand + " <category> <amount> - set a weekly budget",
	noBudgetCommand + " <category> - stop monitoring a category",
	summaryCommand + " - spending and budget status this week",
	resetCommand + " - close this week and start the next one",
	predictCommand + " [category] - projected spending for next week",
	chartCommand + " - spending against budgets",
	categoriesCommand + " - known categories",
}, "\n")

type sessionOpener interface {
	Open(ctx context.Context, username string) (*tracker.Session, error)
}

type handler func(ctx context.Context, arg string, sess *tracker.Session) (string, error)

type handlerMap map[string]handler

type HandlerService struct {
	handlersMap handlerMap
	sessions    sessionOpener
}

func newHandler(sessions sessionOpener) *HandlerService {
	res := &HandlerService{
		handlersMap: nil,
		sessions:    sessions,
	}
	res.handlersMap = newMap(res)
	return res
}

func newMap(s *HandlerService) handlerMap {
	m := make(handlerMap)
	m[startCommand] = s.handleStart
	m[helpCommand] = s.handleHelp
	m[expenseCommand] = s.handleExpense
	m[budgetCommand] = s.handleBudget
	m[noBudgetCommand] = s.handleNoBudget
	m[summaryCommand] = s.handleSummary
	m[resetCommand] = s.handleReset
	m[predictCommand] = s.handlePredict
	m[chartCommand] = s.handleChart
	m[categoriesCommand] = s.handleCategories

	m[""] = s.handleNoCommand

	return m
}

func (s *HandlerService) HandleMessage(ctx context.Context, text, username string) (string, error) {
	cmd, arg := parseCommand(text)
	handler, ok := s.handlersMap[cmd]
	if !ok {
		return dontUnderstandMessage, nil
	}

	sess, err := s.sessions.Open(ctx, username)
	if errors.Is(err, tracker.ErrCorruptState) {
		return cannotLoadMessage, errors.Wrap(err, "handle message")
	}
	if err != nil {
		return cannotSaveMessage, errors.Wrap(err, "handle message")
	}
	return handler(ctx, arg, sess)
}

func (s *HandlerService) handleStart(_ context.Context, _ string, _ *tracker.Session) (string, error) {
	return helloMessage + "\n\n" + helpMessage, nil
}

func (s *HandlerService) handleHelp(_ context.Context, _ string, _ *tracker.Session) (string, error) {
	return helpMessage, nil
}

func (s *HandlerService) handleExpense(ctx context.Context, arg string, sess *tracker.Session) (string, error) {
	raw, amount, ok := splitAmount(arg)
	if !ok {
		return incorrectUsageMessage, nil
	}
	name, err := category.Parse(raw)
	if err != nil {
		return incorrectCategoryMessage, nil
	}

	eval, err := sess.AddExpense(ctx, name, amount)
	if errors.Is(err, ledger.ErrInvalidAmount) {
		return incorrectExpenseMessage, nil
	}
	if err != nil {
		return cannotSaveMessage, errors.Wrap(err, "handle expense")
	}
	return withSignal(fmt.Sprintf("Added $%.2f to %s. Spent this week: $%.2f", amount, name, eval.Spent), eval), nil
}

func (s *HandlerService) handleBudget(ctx context.Context, arg string, sess *tracker.Session) (string, error) {
	raw, amount, ok := splitAmount(arg)
	if !ok {
		return incorrectUsageMessage, nil
	}
	name, err := category.Parse(raw)
	if err != nil {
		return incorrectCategoryMessage, nil
	}

	eval, err := sess.SetBudget(ctx, name, amount)
	if errors.Is(err, ledger.ErrInvalidBudget) {
		return incorrectBudgetMessage, nil
	}
	if err != nil {
		return cannotSaveMessage, errors.Wrap(err, "handle budget")
	}
	return withSignal(fmt.Sprintf("Budget for %s set to $%.2f", name, amount), eval), nil
}

func (s *HandlerService) handleNoBudget(ctx context.Context, arg string, sess *tracker.Session) (string, error) {
	name, err := category.Parse(arg)
	if err != nil {
		return incorrectUsageMessage, nil
	}
	if _, err = sess.ClearBudget(ctx, name); err != nil {
		return cannotSaveMessage, errors.Wrap(err, "handle no budget")
	}
	return fmt.Sprintf("Budget monitoring for %s is off", name), nil
}

func (s *HandlerService) handleSummary(_ context.Context, _ string, sess *tracker.Session) (string, error) {
	evals := sess.Summary()
	if len(evals) == 0 {
		return noExpensesMessage, nil
	}
	res := make([]string, 0, len(evals)+3)
	res = append(res, fmt.Sprintf("Week %d", sess.Week()))
	total := 0.0
	for _, e := range evals {
		res = append(res, formatEvaluation(e))
		total += e.Spent
	}
	res = append(res, "", fmt.Sprintf("Total: $%.2f", total))
	return strings.Join(res, "\n"), nil
}

func (s *HandlerService) handleReset(ctx context.Context, _ string, sess *tracker.Session) (string, error) {
	res, err := sess.Rollover(ctx)
	if errors.Is(err, rollover.ErrAlreadyEmpty) {
		return alreadyEmptyMessage, nil
	}
	if err != nil {
		return cannotSaveMessage, errors.Wrap(err, "handle reset")
	}
	return fmt.Sprintf("%s\nWeek %d total: $%.2f", res.Message(), res.ClosedWeek, res.Snapshot.Total()), nil
}

func (s *HandlerService) handlePredict(ctx context.Context, arg string, sess *tracker.Session) (string, error) {
	if arg != "" {
		name, err := category.Parse(arg)
		if err != nil {
			return incorrectCategoryMessage, nil
		}
		p, err := sess.Predict(name)
		if errors.Is(err, forecast.ErrNoHistory) {
			return noHistoryMessage, nil
		}
		if err != nil {
			return "", errors.Wrap(err, "handle predict")
		}
		return formatPrediction(p), nil
	}

	preds, err := sess.PredictAll(ctx)
	if errors.Is(err, forecast.ErrNoHistory) {
		return noHistoryMessage, nil
	}
	if err != nil {
		return "", errors.Wrap(err, "handle predict")
	}
	res := make([]string, 0, len(preds)+1)
	res = append(res, "Next week, within one standard deviation:")
	for _, p := range preds {
		res = append(res, formatPrediction(p))
	}
	return strings.Join(res, "\n"), nil
}

func (s *HandlerService) handleChart(_ context.Context, _ string, sess *tracker.Session) (string, error) {
	return formatChart(sess.ChartData()), nil
}

func (s *HandlerService) handleCategories(_ context.Context, _ string, sess *tracker.Session) (string, error) {
	cats := sess.Categories()
	res := make([]string, 0, len(cats))
	for _, c := range cats {
		res = append(res, "• "+c.String())
	}
	return strings.Join(res, "\n"), nil
}

func (s *HandlerService) handleNoCommand(_ context.Context, _ string, _ *tracker.Session) (string, error) {
	return loveToTalkMessage, nil
}

func withSignal(text string, eval ledger.Evaluation) string {
	if signal := eval.Message(); signal != "" {
		return text + "\n" + signal
	}
	return text
}
