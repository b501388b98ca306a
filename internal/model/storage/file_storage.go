package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/history"
	"max.ks1230/expense-tracker/internal/model/ledger"
)

// FileStorage keeps one JSON document for the current week and one CSV file
// for the closed weeks per user.
type FileStorage struct {
	dir string
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}
	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) ledgerPath(username string) string {
	return filepath.Join(s.dir, "data_"+url.PathEscape(username)+".json")
}

func (s *FileStorage) historyPath(username string) string {
	return filepath.Join(s.dir, "history_"+url.PathEscape(username)+".csv")
}

func (s *FileStorage) LoadLedger(_ context.Context, username string) (ledger.Record, error) {
	raw, err := os.ReadFile(s.ledgerPath(username))
	if os.IsNotExist(err) {
		return ledger.Record{}, ErrNotFound
	}
	if err != nil {
		return ledger.Record{}, errors.Wrap(err, "read ledger")
	}

	var rec ledger.Record
	if err = json.Unmarshal(raw, &rec); err != nil {
		return ledger.Record{}, errors.Wrap(ErrCorrupt, "decode ledger: "+err.Error())
	}
	return rec, nil
}

func (s *FileStorage) SaveLedger(_ context.Context, username string, rec ledger.Record) error {
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode ledger")
	}
	return errors.Wrap(writeFileAtomic(s.ledgerPath(username), raw), "save ledger")
}

func (s *FileStorage) LoadHistory(_ context.Context, username string) (history.Record, error) {
	f, err := os.Open(s.historyPath(username))
	if os.IsNotExist(err) {
		return history.Record{}, ErrNotFound
	}
	if err != nil {
		return history.Record{}, errors.Wrap(err, "open history")
	}
	defer f.Close()

	h, corrupt, err := history.Decode(f)
	if err != nil {
		return history.Record{}, errors.Wrap(err, "load history")
	}
	for _, cell := range corrupt {
		logger.Warn("unparseable history cell",
			zap.String("user", username),
			zap.String("category", cell.Category.String()),
			zap.Int("week", cell.Week),
			zap.String("raw", cell.Raw),
		)
	}
	return h.Record(), nil
}

func (s *FileStorage) SaveHistory(_ context.Context, username string, rec history.Record) error {
	h, err := history.FromRecord(rec)
	if err != nil {
		return errors.Wrap(err, "save history")
	}
	var buf bytes.Buffer
	if err = history.Encode(&buf, h); err != nil {
		return errors.Wrap(err, "save history")
	}
	return errors.Wrap(writeFileAtomic(s.historyPath(username), buf.Bytes()), "save history")
}

// writeFileAtomic replaces path so that readers never see a half-written file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
