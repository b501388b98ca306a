package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_OnFormatKey_ShouldEscapeUnsafeCharacters(t *testing.T) {
	assert.Equal(t, "forecast:alice", formatKey("alice"))
	assert.Equal(t, "forecast:john+doe%2F1", formatKey("john doe/1"))
}
