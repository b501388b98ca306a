package history

import (
	"fmt"

	"github.com/pkg/errors"
	"max.ks1230/expense-tracker/internal/entity/category"
)

// Record is the storage shape of a history. Unparseable cells are NaN.
type Record struct {
	Week   int
	Series map[string][]float64
}

func EmptyRecord() Record {
	return Record{Week: 1, Series: map[string][]float64{}}
}

func (h *History) Record() Record {
	rec := Record{Week: h.week, Series: make(map[string][]float64, len(h.series))}
	for name := range h.series {
		rec.Series[name.String()] = h.Series(name)
	}
	return rec
}

func FromRecord(rec Record) (*History, error) {
	if rec.Week < 1 {
		return nil, errors.Wrap(ErrCorruptHistory, fmt.Sprintf("week index %d", rec.Week))
	}
	h := &History{week: rec.Week, series: make(map[category.Name][]float64, len(rec.Series))}
	for raw, s := range rec.Series {
		name, err := category.Parse(raw)
		if err != nil {
			return nil, errors.Wrap(ErrCorruptHistory, err.Error())
		}
		if _, dup := h.series[name]; dup {
			return nil, errors.Wrap(ErrCorruptHistory, "duplicate category "+name.String())
		}
		if len(s) >= rec.Week {
			return nil, errors.Wrap(ErrCorruptHistory,
				fmt.Sprintf("%s has %d weeks, only %d closed", name, len(s), rec.Week-1))
		}
		cp := make([]float64, len(s))
		copy(cp, s)
		h.series[name] = cp
	}
	return h, nil
}
