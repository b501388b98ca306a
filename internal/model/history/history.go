package history

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"max.ks1230/expense-tracker/internal/entity/category"
)

var (
	ErrCorruptHistory       = errors.New("history is corrupt")
	ErrCorruptHistoryRecord = errors.New("history cell is not a number")
)

// Unparseable marks a stored cell that could not be read back. It is kept in
// the series so that it is not mistaken for a week without spending.
func Unparseable() float64 {
	return math.NaN()
}

// IsUnparseable also holds for infinities: no real week of spending is
// infinite.
func IsUnparseable(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// History is the closed-week series per category. Week is the index of the
// week currently in progress, starting at 1.
type History struct {
	week   int
	series map[category.Name][]float64
}

func New() *History {
	return &History{
		week:   1,
		series: make(map[category.Name][]float64),
	}
}

func (h *History) Week() int {
	return h.week
}

// Append closes the current week with the given totals. Categories missing
// from the snapshot get 0; categories seen for the first time are back-filled
// with zeros for every earlier week.
func (h *History) Append(snapshot map[category.Name]float64) {
	for name := range snapshot {
		if _, ok := h.series[name]; !ok {
			h.series[name] = nil
		}
	}
	closed := h.week - 1
	for name, s := range h.series {
		for len(s) < closed {
			s = append(s, 0)
		}
		h.series[name] = append(s, snapshot[name])
	}
	h.week++
}

// Series returns a copy of the category's closed weeks, oldest first.
func (h *History) Series(name category.Name) []float64 {
	s, ok := h.series[name]
	if !ok {
		return nil
	}
	res := make([]float64, len(s))
	copy(res, s)
	return res
}

func (h *History) Categories() []category.Name {
	res := make([]category.Name, 0, len(h.series))
	for name := range h.series {
		res = append(res, name)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func (h *History) IsEmpty() bool {
	return len(h.series) == 0
}

// CorruptCells lists every unparseable cell in category order.
func (h *History) CorruptCells() []CorruptCell {
	var res []CorruptCell
	for _, name := range h.Categories() {
		for i, v := range h.series[name] {
			if IsUnparseable(v) {
				res = append(res, CorruptCell{Category: name, Week: i + 1})
			}
		}
	}
	return res
}

func (h *History) Clone() *History {
	res := &History{
		week:   h.week,
		series: make(map[category.Name][]float64, len(h.series)),
	}
	for name := range h.series {
		res.series[name] = h.Series(name)
	}
	return res
}

// CorruptCell points at a stored value that could not be parsed.
type CorruptCell struct {
	Category category.Name
	Week     int
	Raw      string
}

func (c CorruptCell) Error() string {
	return fmt.Sprintf("%s: %s week %d %q", ErrCorruptHistoryRecord, c.Category, c.Week, c.Raw)
}

func (c CorruptCell) Unwrap() error {
	return ErrCorruptHistoryRecord
}
