package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"max.ks1230/expense-tracker/internal/model/history"
	"max.ks1230/expense-tracker/internal/model/ledger"
)

func Test_OnMissingFiles_ShouldReturnNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.LoadLedger(ctx, "Alice")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.LoadHistory(ctx, "Alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_OnLedgerRoundTrip_ShouldRestoreDocument(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	budget := 100.0
	rec := ledger.Record{
		Totals:      map[string]float64{"Food": 42.5},
		Budgets:     map[string]*float64{"Food": &budget, "Transport": nil},
		WeekStarted: time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveLedger(ctx, "Alice", rec))

	loaded, err := s.LoadLedger(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, rec.Totals, loaded.Totals)
	assert.Equal(t, rec.Budgets, loaded.Budgets)
	assert.True(t, rec.WeekStarted.Equal(loaded.WeekStarted))
}

func Test_OnLegacyLedgerFile_ShouldReadPythonLayout(t *testing.T) {
	dir := t.TempDir()
	raw := `{"weekly_totals": {"Food": 12.5}, "weekly_budgets": {"Food": 50, "Fun": null}, "current_week": 3}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data_Bob.json"), []byte(raw), 0o600))

	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	rec, err := s.LoadLedger(context.Background(), "Bob")
	require.NoError(t, err)
	assert.Equal(t, 12.5, rec.Totals["Food"])
	assert.Equal(t, 50.0, *rec.Budgets["Food"])
	assert.Nil(t, rec.Budgets["Fun"])
	assert.Contains(t, rec.Budgets, "Fun")
}

func Test_OnBrokenLedgerFile_ShouldReportCorruption(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data_Bob.json"), []byte("{not json"), 0o600))

	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	_, err = s.LoadLedger(context.Background(), "Bob")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func Test_OnHistoryRoundTrip_ShouldWriteCSVAndReadItBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	rec := history.Record{Week: 3, Series: map[string][]float64{
		"Food":      {80, 100},
		"Transport": {0, 12.5},
	}}
	require.NoError(t, s.SaveHistory(ctx, "Alice", rec))

	raw, err := os.ReadFile(filepath.Join(dir, "history_Alice.csv"))
	require.NoError(t, err)
	assert.Equal(t, "3\nFood,80.00,100.00\nTransport,0.00,12.50\n", string(raw))

	loaded, err := s.LoadHistory(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
}

func Test_OnHistoryWithBadCell_ShouldKeepMarker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history_Bob.csv"), []byte("3\nFood,x,5\n"), 0o600))

	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	rec, err := s.LoadHistory(context.Background(), "Bob")
	require.NoError(t, err)
	require.Len(t, rec.Series["Food"], 2)
	assert.True(t, history.IsUnparseable(rec.Series["Food"][0]))
	assert.Equal(t, 5.0, rec.Series["Food"][1])
}

func Test_OnHistoryWithBadHeader_ShouldFail(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history_Bob.csv"), []byte("abc\n"), 0o600))

	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	_, err = s.LoadHistory(context.Background(), "Bob")
	assert.ErrorIs(t, err, history.ErrCorruptHistory)
}

func Test_OnUsernameWithSlash_ShouldStayInsideDataDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	require.NoError(t, s.SaveLedger(context.Background(), "../evil", ledger.Record{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data_..%2Fevil.json", entries[0].Name())
}
