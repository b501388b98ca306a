package history

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"max.ks1230/expense-tracker/internal/entity/category"
)

// Encode writes the week index as the first row, then one row per category in
// name order with every value fixed to two decimals.
func Encode(w io.Writer, h *History) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{strconv.Itoa(h.week)}); err != nil {
		return errors.Wrap(err, "encode history")
	}
	for _, name := range h.Categories() {
		s := h.series[name]
		row := make([]string, 0, len(s)+1)
		row = append(row, name.String())
		for _, v := range s {
			if IsUnparseable(v) {
				v = Unparseable()
			}
			row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "encode history")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "encode history")
}

// Decode parses what Encode wrote. Cells that are not numbers are kept as
// Unparseable and reported; they do not stop the rest of the file from loading.
func Decode(r io.Reader) (*History, []CorruptCell, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(ErrCorruptHistory, err.Error())
	}
	rows = dropBlank(rows)
	if len(rows) == 0 {
		return New(), nil, nil
	}

	week, err := strconv.Atoi(strings.TrimSpace(rows[0][0]))
	if err != nil {
		return nil, nil, errors.Wrap(ErrCorruptHistory, "week header "+strconv.Quote(rows[0][0]))
	}

	rec := Record{Week: week, Series: make(map[string][]float64, len(rows)-1)}
	var corrupt []CorruptCell
	for _, row := range rows[1:] {
		name, err := category.Parse(row[0])
		if err != nil {
			return nil, nil, errors.Wrap(ErrCorruptHistory, err.Error())
		}
		if _, dup := rec.Series[name.String()]; dup {
			return nil, nil, errors.Wrap(ErrCorruptHistory, "duplicate category "+name.String())
		}
		values := make([]float64, 0, len(row)-1)
		for i, cell := range row[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil || IsUnparseable(v) {
				corrupt = append(corrupt, CorruptCell{Category: name, Week: i + 1, Raw: cell})
				v = Unparseable()
			}
			values = append(values, v)
		}
		rec.Series[name.String()] = values
	}

	h, err := FromRecord(rec)
	if err != nil {
		return nil, nil, err
	}
	return h, corrupt, nil
}

func dropBlank(rows [][]string) [][]string {
	res := rows[:0]
	for _, row := range rows {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		res = append(res, row)
	}
	return res
}
