package rollover

import (
	"fmt"

	"github.com/pkg/errors"
	"max.ks1230/expense-tracker/internal/model/history"
	"max.ks1230/expense-tracker/internal/model/ledger"
)

var ErrAlreadyEmpty = errors.New("weekly totals are already empty")

type Result struct {
	ClosedWeek int
	OpenedWeek int
	Snapshot   ledger.Snapshot
}

func (r Result) Message() string {
	return fmt.Sprintf("Week %d closed. Week %d is now open.", r.ClosedWeek, r.OpenedWeek)
}

// Apply closes the ledger's week into the history. Both arguments are mutated
// in place; callers needing all-or-nothing semantics pass clones.
func Apply(l *ledger.Ledger, h *history.History) (Result, error) {
	closed := h.Week()
	snap, ok := l.Reset()
	if !ok {
		return Result{}, ErrAlreadyEmpty
	}
	h.Append(snap.Totals())
	return Result{
		ClosedWeek: closed,
		OpenedWeek: h.Week(),
		Snapshot:   snap,
	}, nil
}
