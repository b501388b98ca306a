package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"max.ks1230/expense-tracker/internal/entity/category"
)

func Test_OnNew_ShouldStartAtWeekOne(t *testing.T) {
	h := New()

	assert.Equal(t, 1, h.Week())
	assert.True(t, h.IsEmpty())
}

func Test_OnAppend_ShouldAdvanceWeekAndFillAbsentCategories(t *testing.T) {
	h := New()
	h.Append(map[category.Name]float64{"Food": 50, "Transport": 10})
	h.Append(map[category.Name]float64{"Food": 70})

	assert.Equal(t, 3, h.Week())
	assert.Equal(t, []float64{50, 70}, h.Series("Food"))
	assert.Equal(t, []float64{10, 0}, h.Series("Transport"))
}

func Test_OnLateCategory_ShouldBackFillZeros(t *testing.T) {
	const n, k = 6, 4
	h := New()
	for week := 1; week <= n; week++ {
		snap := map[category.Name]float64{"Food": float64(week)}
		if week == k {
			snap["Books"] = 42
		}
		h.Append(snap)
	}

	books := h.Series("Books")
	require.Len(t, books, n)
	assert.Equal(t, []float64{0, 0, 0}, books[:k-1])
	assert.Equal(t, 42.0, books[k-1])
	for _, name := range h.Categories() {
		assert.Len(t, h.Series(name), h.Week()-1, name)
	}
}

func Test_OnSeries_ShouldReturnCopy(t *testing.T) {
	h := New()
	h.Append(map[category.Name]float64{"Food": 50})

	s := h.Series("Food")
	s[0] = 1

	assert.Equal(t, []float64{50}, h.Series("Food"))
	assert.Nil(t, h.Series("Unknown"))
}

func Test_OnClone_ShouldBeIndependent(t *testing.T) {
	h := New()
	h.Append(map[category.Name]float64{"Food": 50})

	c := h.Clone()
	c.Append(map[category.Name]float64{"Food": 10})

	assert.Equal(t, 2, h.Week())
	assert.Equal(t, []float64{50}, h.Series("Food"))
	assert.Equal(t, []float64{50, 10}, c.Series("Food"))
}

func Test_OnFromRecordTooLongSeries_ShouldFail(t *testing.T) {
	_, err := FromRecord(Record{Week: 2, Series: map[string][]float64{"Food": {1, 2}}})
	assert.ErrorIs(t, err, ErrCorruptHistory)

	_, err = FromRecord(Record{Week: 0})
	assert.ErrorIs(t, err, ErrCorruptHistory)
}

func Test_OnCorruptCells_ShouldListUnparseableValues(t *testing.T) {
	h, err := FromRecord(Record{Week: 3, Series: map[string][]float64{
		"Food": {Unparseable(), 10},
	}})
	require.NoError(t, err)

	cells := h.CorruptCells()
	require.Len(t, cells, 1)
	assert.Equal(t, category.Name("Food"), cells[0].Category)
	assert.Equal(t, 1, cells[0].Week)
	assert.ErrorIs(t, cells[0], ErrCorruptHistoryRecord)
}
