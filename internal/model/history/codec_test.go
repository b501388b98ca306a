package history

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"max.ks1230/expense-tracker/internal/entity/category"
)

func Test_OnEncode_ShouldWriteSortedRowsWithTwoDecimals(t *testing.T) {
	h := New()
	h.Append(map[category.Name]float64{"Transport": 12.5, "Food": 80})
	h.Append(map[category.Name]float64{"Food": 100.456})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, h))

	assert.Equal(t, "3\nFood,80.00,100.46\nTransport,12.50,0.00\n", buf.String())
}

func Test_OnRoundTrip_ShouldPreserveNumericHistory(t *testing.T) {
	h := New()
	h.Append(map[category.Name]float64{"Food": 80, "Transport": 12.25})
	h.Append(map[category.Name]float64{"Food": 100})
	h.Append(map[category.Name]float64{"Books": 7.5})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, h))

	loaded, corrupt, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, corrupt)
	assert.Equal(t, h.Record(), loaded.Record())
}

func Test_OnDecodeCorruptCell_ShouldKeepMarkerAndContinue(t *testing.T) {
	in := "4\nFood,80.00,abc,120.00\nTransport,1.00,2.00,3.00\n"

	h, corrupt, err := Decode(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, corrupt, 1)
	assert.Equal(t, CorruptCell{Category: "Food", Week: 2, Raw: "abc"}, corrupt[0])

	food := h.Series("Food")
	require.Len(t, food, 3)
	assert.True(t, IsUnparseable(food[1]))
	assert.NotEqual(t, 0.0, food[1])
	assert.Equal(t, []float64{1, 2, 3}, h.Series("Transport"))
}

func Test_OnDecodeInfiniteCell_ShouldMarkItCorrupt(t *testing.T) {
	in := "4\nFood,inf,10.00,+Infinity\n"

	h, corrupt, err := Decode(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, corrupt, 2)
	assert.Equal(t, CorruptCell{Category: "Food", Week: 1, Raw: "inf"}, corrupt[0])
	assert.Equal(t, CorruptCell{Category: "Food", Week: 3, Raw: "+Infinity"}, corrupt[1])
	food := h.Series("Food")
	assert.True(t, math.IsNaN(food[0]))
	assert.Equal(t, 10.0, food[1])

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, h))
	assert.Equal(t, "4\nFood,NaN,10.00,NaN\n", buf.String())
}

func Test_OnRoundTripWithCorruptCell_ShouldKeepMarker(t *testing.T) {
	h, _, err := Decode(strings.NewReader("3\nFood,oops,5.00\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, h))

	again, corrupt, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, corrupt, 1)
	assert.True(t, IsUnparseable(again.Series("Food")[0]))
	assert.Equal(t, 5.0, again.Series("Food")[1])
}

func Test_OnDecodeEmpty_ShouldStartFresh(t *testing.T) {
	h, corrupt, err := Decode(strings.NewReader(""))
	require.NoError(t, err)

	assert.Empty(t, corrupt)
	assert.Equal(t, 1, h.Week())
}

func Test_OnDecodeBadStructure_ShouldFail(t *testing.T) {
	for _, in := range []string{
		"week\nFood,1.00\n",
		"3\nfood,1.00,2.00\nFOOD,3.00,4.00\n",
		"2\nFood,1.00,2.00\n",
		"2\n  ,1.00\n",
	} {
		_, _, err := Decode(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrCorruptHistory, in)
	}
}

func Test_OnDecodeMixedCase_ShouldCanonicalizeNames(t *testing.T) {
	h, _, err := Decode(strings.NewReader("2\nschool SUPPLIES,4.00\n"))
	require.NoError(t, err)

	assert.Equal(t, []category.Name{"School supplies"}, h.Categories())
}
