package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupTakesFirstNonBlank(t *testing.T) {
	t.Setenv("ORDERDESK_LOG_FORMAT", "  ")
	t.Setenv("LOG_FORMAT", " console ")

	val, ok := Lookup("ORDERDESK_LOG_FORMAT", "LOG_FORMAT")
	assert.True(t, ok)
	assert.Equal(t, "console", val)
}

func TestOrFallsBack(t *testing.T) {
	t.Setenv("ORDERDESK_UNSET_FOR_TEST", "")
	assert.Equal(t, "json", Or("json", "ORDERDESK_UNSET_FOR_TEST"))
	assert.Equal(t, "json", Or("json"))
}
