package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"trims", "  leave at dock 3  ", 0, "leave at dock 3"},
		{"keeps line breaks", "gate B\ncall first", 0, "gate B\ncall first"},
		{"drops control chars", "deliver\x00 before\x07 noon\r\n", 0, "deliver before noon"},
		{"cuts by rune", "привет мир", 6, "привет"},
		{"short input untouched", "ok", 10, "ok"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeString(tc.input, tc.max))
		})
	}
}
