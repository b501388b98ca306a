package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_OnParse_ShouldMergeLetterCasing(t *testing.T) {
	for _, raw := range []string{"food", "Food", "FOOD", "  fOoD "} {
		name, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, Name("Food"), name, raw)
	}
}

func Test_OnParse_ShouldLowerEverythingAfterFirstLetter(t *testing.T) {
	name, err := Parse("school SUPPLIES")
	require.NoError(t, err)
	assert.Equal(t, Name("School supplies"), name)

	name, err = Parse("épicerie")
	require.NoError(t, err)
	assert.Equal(t, Name("Épicerie"), name)
}

func Test_OnParseBlank_ShouldFail(t *testing.T) {
	_, err := Parse("   ")
	assert.ErrorIs(t, err, ErrEmptyCategory)
}
