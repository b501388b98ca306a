package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	// postgres driver
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/history"
	"max.ks1230/expense-tracker/internal/model/ledger"
)

const dsnTemplate = "user=%s password=%s host=%s port=%d dbname=%s sslmode=%s"

//go:embed schema.sql
var schema string

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type config interface {
	Host() string
	Port() int
	Username() string
	Password() string
	Database() string
	SSLMode() string
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config config) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", fmt.Sprintf(dsnTemplate,
		config.Username(),
		config.Password(),
		config.Host(),
		config.Port(),
		config.Database(),
		config.SSLMode()))
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	return &PostgresStorage{db}, nil
}

// Migrate creates the tables when they do not exist yet.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return errors.Wrap(err, "migrate")
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) LoadLedger(ctx context.Context, username string) (ledger.Record, error) {
	var (
		hasLedger   bool
		weekStarted sql.NullTime
	)
	err := psql.Select("has_ledger", "week_started").
		From("users").
		Where(sq.Eq{"username": username}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&hasLedger, &weekStarted)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !hasLedger) {
		return ledger.Record{}, ErrNotFound
	}
	if err != nil {
		return ledger.Record{}, errors.Wrap(err, "get ledger")
	}

	rows, err := psql.Select("category", "total", "budget", "budget_listed").
		From("ledger_entries").
		Where(sq.Eq{"username": username}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return ledger.Record{}, errors.Wrap(err, "get ledger entries")
	}
	defer closeRows(rows)

	rec := ledger.Record{
		Totals:      make(map[string]float64),
		Budgets:     make(map[string]*float64),
		WeekStarted: weekStarted.Time,
	}
	for rows.Next() {
		var (
			cat    string
			total  sql.NullFloat64
			budget sql.NullFloat64
			listed bool
		)
		if err = rows.Scan(&cat, &total, &budget, &listed); err != nil {
			return ledger.Record{}, errors.Wrap(err, "get ledger entries")
		}
		if total.Valid {
			rec.Totals[cat] = total.Float64
		}
		if budget.Valid {
			b := budget.Float64
			rec.Budgets[cat] = &b
		} else if listed {
			rec.Budgets[cat] = nil
		}
	}
	if err = rows.Err(); err != nil {
		return ledger.Record{}, errors.Wrap(err, "get ledger entries")
	}
	return rec, nil
}

func (s *PostgresStorage) SaveLedger(ctx context.Context, username string, rec ledger.Record) error {
	return s.inTx(ctx, "save ledger", func(tx *sql.Tx) error {
		return saveLedger(ctx, tx, username, rec)
	})
}

func (s *PostgresStorage) LoadHistory(ctx context.Context, username string) (history.Record, error) {
	var week sql.NullInt64
	err := psql.Select("week_index").
		From("users").
		Where(sq.Eq{"username": username}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&week)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !week.Valid) {
		return history.Record{}, ErrNotFound
	}
	if err != nil {
		return history.Record{}, errors.Wrap(err, "get history")
	}

	rows, err := psql.Select("category", "week", "amount").
		From("history_cells").
		Where(sq.Eq{"username": username}).
		OrderBy("category", "week").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return history.Record{}, errors.Wrap(err, "get history cells")
	}
	defer closeRows(rows)

	var cells []historyCell
	for rows.Next() {
		var c historyCell
		if err = rows.Scan(&c.category, &c.week, &c.amount); err != nil {
			return history.Record{}, errors.Wrap(err, "get history cells")
		}
		cells = append(cells, c)
	}
	if err = rows.Err(); err != nil {
		return history.Record{}, errors.Wrap(err, "get history cells")
	}
	return assembleHistory(username, int(week.Int64), cells)
}

func (s *PostgresStorage) SaveHistory(ctx context.Context, username string, rec history.Record) error {
	return s.inTx(ctx, "save history", func(tx *sql.Tx) error {
		return saveHistory(ctx, tx, username, rec)
	})
}

// CommitRollover writes the reset ledger and the extended history in one
// transaction.
func (s *PostgresStorage) CommitRollover(ctx context.Context, username string, l ledger.Record, h history.Record) error {
	return s.inTx(ctx, "commit rollover", func(tx *sql.Tx) error {
		if err := saveHistory(ctx, tx, username, h); err != nil {
			return err
		}
		return saveLedger(ctx, tx, username, l)
	})
}

func (s *PostgresStorage) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, op)
	}
	defer func() {
		txErr := tx.Rollback()
		if txErr != nil && !errors.Is(txErr, sql.ErrTxDone) {
			logger.Error("error when transaction rollback", zap.Error(txErr))
		}
	}()

	if err = fn(tx); err != nil {
		return errors.Wrap(err, op)
	}
	return errors.Wrap(tx.Commit(), op)
}

func saveLedger(ctx context.Context, tx *sql.Tx, username string, rec ledger.Record) error {
	var weekStarted interface{}
	if !rec.WeekStarted.IsZero() {
		weekStarted = rec.WeekStarted
	}
	_, err := psql.Insert("users").
		Columns("username", "has_ledger", "week_started", "updated_at").
		Values(username, true, weekStarted, time.Now()).
		Suffix("ON CONFLICT(username) DO UPDATE SET has_ledger = TRUE, " +
			"week_started = EXCLUDED.week_started, updated_at = EXCLUDED.updated_at").
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "upsert user")
	}

	_, err = psql.Delete("ledger_entries").
		Where(sq.Eq{"username": username}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "clear ledger entries")
	}

	cats := make(map[string]struct{}, len(rec.Totals)+len(rec.Budgets))
	for c := range rec.Totals {
		cats[c] = struct{}{}
	}
	for c := range rec.Budgets {
		cats[c] = struct{}{}
	}
	if len(cats) == 0 {
		return nil
	}

	insert := psql.Insert("ledger_entries").
		Columns("username", "category", "total", "budget", "budget_listed")
	for c := range cats {
		var total, budget interface{}
		if v, ok := rec.Totals[c]; ok {
			total = v
		}
		b, listed := rec.Budgets[c]
		if b != nil {
			budget = *b
		}
		insert = insert.Values(username, c, total, budget, listed)
	}
	_, err = insert.RunWith(tx).ExecContext(ctx)
	return errors.Wrap(err, "insert ledger entries")
}

func saveHistory(ctx context.Context, tx *sql.Tx, username string, rec history.Record) error {
	_, err := psql.Insert("users").
		Columns("username", "week_index", "updated_at").
		Values(username, rec.Week, time.Now()).
		Suffix("ON CONFLICT(username) DO UPDATE SET " +
			"week_index = EXCLUDED.week_index, updated_at = EXCLUDED.updated_at").
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "upsert user")
	}

	_, err = psql.Delete("history_cells").
		Where(sq.Eq{"username": username}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "clear history cells")
	}

	cells := historyCells(rec)
	if len(cells) == 0 {
		return nil
	}
	insert := psql.Insert("history_cells").Columns("username", "category", "week", "amount")
	for _, c := range cells {
		var amount interface{}
		if c.amount.Valid {
			amount = c.amount.Float64
		}
		insert = insert.Values(username, c.category, c.week, amount)
	}
	_, err = insert.RunWith(tx).ExecContext(ctx)
	return errors.Wrap(err, "insert history cells")
}

// historyCell is one row of history_cells. A NULL amount is an unparseable
// cell.
type historyCell struct {
	category string
	week     int
	amount   sql.NullFloat64
}

// assembleHistory builds a record from cells ordered by category and week.
// Every series must run from week 1 without gaps.
func assembleHistory(username string, week int, cells []historyCell) (history.Record, error) {
	rec := history.Record{Week: week, Series: make(map[string][]float64)}
	for _, c := range cells {
		series := rec.Series[c.category]
		if c.week != len(series)+1 {
			return history.Record{}, errors.Wrap(ErrCorrupt, fmt.Sprintf("history of %s skips to week %d", c.category, c.week))
		}
		v := c.amount.Float64
		if !c.amount.Valid {
			logger.Warn("unparseable history cell",
				zap.String("user", username), zap.String("category", c.category), zap.Int("week", c.week))
			v = history.Unparseable()
		}
		rec.Series[c.category] = append(series, v)
	}
	return rec, nil
}

func historyCells(rec history.Record) []historyCell {
	var cells []historyCell
	for cat, series := range rec.Series {
		for i, v := range series {
			cells = append(cells, historyCell{
				category: cat,
				week:     i + 1,
				amount:   sql.NullFloat64{Float64: v, Valid: !history.IsUnparseable(v)},
			})
		}
	}
	return cells
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logger.Error("error closing rows", zap.Error(err))
	}
}
