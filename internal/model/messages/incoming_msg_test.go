package messages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"max.ks1230/expense-tracker/internal/model/ledger"
	"max.ks1230/expense-tracker/internal/model/storage"
	"max.ks1230/expense-tracker/internal/model/tracker"
)

const userID = int64(123)

type senderMock struct {
	mock.Mock
}

func (m *senderMock) SendMessage(text string, userID int64) error {
	return m.Called(text, userID).Error(0)
}

type trackerConfig struct{}

func (trackerConfig) WarningThreshold() float64  { return ledger.DefaultThreshold }
func (trackerConfig) AutoRollover() bool         { return false }
func (trackerConfig) WeekStartDay() time.Weekday { return time.Monday }

type brokenStorage struct {
	*storage.InMemStorage
}

func (brokenStorage) SaveLedger(context.Context, string, ledger.Record) error {
	return errors.New("read-only filesystem")
}

func newModel(t *testing.T, st tracker.Storage) (*Service, *senderMock) {
	t.Helper()
	sender := &senderMock{}
	return NewService(sender, tracker.New(st, trackerConfig{})), sender
}

// say sends text and returns what the bot answered.
func say(t *testing.T, model *Service, sender *senderMock, text string) string {
	t.Helper()
	var answer string
	sender.On("SendMessage", mock.Anything, userID).
		Run(func(args mock.Arguments) { answer = args.String(0) }).
		Return(nil).Once()
	require.NoError(t, model.HandleIncomingMessage(context.Background(), Message{
		Text:     text,
		UserID:   userID,
		Username: "alice",
	}))
	return answer
}

func Test_OnStartCommand_ShouldAnswerWithIntroMessage(t *testing.T) {
	model, sender := newModel(t, storage.NewInMemStorage())

	answer := say(t, model, sender, "/start")

	assert.True(t, strings.HasPrefix(answer, helloMessage))
	assert.Contains(t, answer, "/expense <category> <amount>")
}

func Test_OnUnknownCommand_ShouldAnswerWithHelpMessage(t *testing.T) {
	model, sender := newModel(t, storage.NewInMemStorage())

	assert.Equal(t, dontUnderstandMessage, say(t, model, sender, "/none"))
}

func Test_OnExpenseThenBudget_ShouldSignalWarning(t *testing.T) {
	model, sender := newModel(t, storage.NewInMemStorage())

	say(t, model, sender, "/expense food 50")
	say(t, model, sender, "/budget FOOD 100")
	answer := say(t, model, sender, "/expense Food 45")

	assert.Equal(t, "Added $45.00 to Food. Spent this week: $95.00\nWARNING: Food at 95% (95.00/100.00)", answer)
}

func Test_OnMultiWordCategory_ShouldKeepWholeName(t *testing.T) {
	model, sender := newModel(t, storage.NewInMemStorage())

	answer := say(t, model, sender, "/expense school supplies 12.5")

	assert.Equal(t, "Added $12.50 to School supplies. Spent this week: $12.50", answer)
}

func Test_OnInvalidAmounts_ShouldExplain(t *testing.T) {
	model, sender := newModel(t, storage.NewInMemStorage())

	assert.Equal(t, incorrectExpenseMessage, say(t, model, sender, "/expense Food -3"))
	assert.Equal(t, incorrectBudgetMessage, say(t, model, sender, "/budget Food 0"))
	assert.Equal(t, incorrectUsageMessage, say(t, model, sender, "/expense Food"))
	assert.Equal(t, incorrectUsageMessage, say(t, model, sender, "/expense Food lots"))
}

func Test_OnSummary_ShouldListStatuses(t *testing.T) {
	model, sender := newModel(t, storage.NewInMemStorage())
	say(t, model, sender, "/expense Food 101")
	say(t, model, sender, "/budget Food 100")
	say(t, model, sender, "/expense Books 3")

	answer := say(t, model, sender, "/summary")

	assert.Equal(t, strings.Join([]string{
		"Week 1",
		"Books: $3.00 (no budget)",
		"Food: $101.00 / $100.00 (101%) over_budget",
		"",
		"Total: $104.00",
	}, "\n"), answer)
}

func Test_OnResetTwice_ShouldReportAlreadyEmpty(t *testing.T) {
	model, sender := newModel(t, storage.NewInMemStorage())
	say(t, model, sender, "/expense Food 20")

	assert.Equal(t, "Week 1 closed. Week 2 is now open.\nWeek 1 total: $20.00", say(t, model, sender, "/reset"))
	assert.Equal(t, alreadyEmptyMessage, say(t, model, sender, "/reset"))
}

func Test_OnPredict_ShouldUseClosedWeeks(t *testing.T) {
	model, sender := newModel(t, storage.NewInMemStorage())
	assert.Equal(t, noHistoryMessage, say(t, model, sender, "/predict"))

	for _, v := range []string{"80", "100", "120"} {
		say(t, model, sender, "/expense Food "+v)
		say(t, model, sender, "/reset")
	}

	assert.Equal(t,
		"Food: $83.67 to $116.33 (mean $100.00, median $100.00, 3 weeks)",
		say(t, model, sender, "/predict food"))
	assert.Contains(t, say(t, model, sender, "/predict"), "Food: $83.67 to $116.33")
	assert.Equal(t, noHistoryMessage, say(t, model, sender, "/predict Travel"))
}

func Test_OnNoBudget_ShouldStopMonitoring(t *testing.T) {
	model, sender := newModel(t, storage.NewInMemStorage())
	say(t, model, sender, "/budget Food 10")

	assert.Equal(t, "Budget monitoring for Food is off", say(t, model, sender, "/nobudget food"))
	assert.Equal(t, "Added $20.00 to Food. Spent this week: $20.00", say(t, model, sender, "/expense Food 20"))
}

func Test_OnChart_ShouldDrawBars(t *testing.T) {
	model, sender := newModel(t, storage.NewInMemStorage())
	assert.Equal(t, noExpensesMessage, say(t, model, sender, "/chart"))

	say(t, model, sender, "/expense Food 50")
	say(t, model, sender, "/budget Food 100")

	assert.Equal(t, strings.Join([]string{
		"Food",
		"  spent  ██████████·········· $50.00",
		"  budget ████████████████████ $100.00",
	}, "\n"), say(t, model, sender, "/chart"))
}

func Test_OnCategories_ShouldIncludeDefaults(t *testing.T) {
	model, sender := newModel(t, storage.NewInMemStorage())

	answer := say(t, model, sender, "/categories")

	assert.Equal(t, "• Food\n• Entertainment\n• Transport\n• School supplies", answer)
}

func Test_OnStorageFailure_ShouldApologiseAndReturnError(t *testing.T) {
	model, sender := newModel(t, brokenStorage{storage.NewInMemStorage()})
	sender.On("SendMessage", "Sorry, something wrong happened...\n"+cannotSaveMessage, userID).Return(nil).Once()

	err := model.HandleIncomingMessage(context.Background(), Message{Text: "/expense Food 5", UserID: userID})

	assert.ErrorIs(t, err, tracker.ErrStorageUnavailable)
	sender.AssertExpectations(t)
}

func Test_OnMessageWithoutUsername_ShouldUseNumericOwner(t *testing.T) {
	assert.Equal(t, "id123", Message{UserID: 123}.Owner())
	assert.Equal(t, "bob", Message{UserID: 123, Username: "bob"}.Owner())
}

func Test_OnParseCommand_ShouldSplitCommandAndArgument(t *testing.T) {
	cmd, arg := parseCommand("  /expense   School supplies 3 ")
	assert.Equal(t, "/expense", cmd)
	assert.Equal(t, "School supplies 3", arg)

	cmd, arg = parseCommand("/summary")
	assert.Equal(t, "/summary", cmd)
	assert.Equal(t, "", arg)

	cmd, arg = parseCommand("hello")
	assert.Equal(t, "", cmd)
	assert.Equal(t, "hello", arg)
}

func Test_OnGroupChatUsersWithoutUsername_ShouldKeepSeparateLedgers(t *testing.T) {
	const groupID = int64(-1001)
	model, sender := newModel(t, storage.NewInMemStorage())
	sender.On("SendMessage", mock.Anything, groupID).Return(nil)

	send := func(text string, from int64) {
		require.NoError(t, model.HandleIncomingMessage(context.Background(), Message{
			Text:   text,
			ChatID: groupID,
			UserID: from,
		}))
	}
	send("/expense Food 10", 1)
	send("/expense Food 7", 2)
	send("/expense Food 1", 1)

	sender.AssertCalled(t, "SendMessage", "Added $1.00 to Food. Spent this week: $11.00", groupID)
	sender.AssertCalled(t, "SendMessage", "Added $7.00 to Food. Spent this week: $7.00", groupID)
	sender.AssertNotCalled(t, "SendMessage", mock.Anything, int64(1))
}
