package storage

import "github.com/pkg/errors"

var (
	ErrNotFound = errors.New("not found")
	ErrCorrupt  = errors.New("stored data is corrupt")
)
