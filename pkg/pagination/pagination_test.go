package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 1, PageSize: 20}, Params{}.Normalize(0, 0))
	assert.Equal(t, Params{Page: 1, PageSize: 50}, Params{Page: -3, PageSize: 500}.Normalize(10, 50))
	assert.Equal(t, Params{Page: 4, PageSize: 10}, Params{Page: 4}.Normalize(10, 50))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, PageSize: 10}.Offset())
	assert.Equal(t, 20, Params{Page: 3, PageSize: 10}.Offset())
	assert.Equal(t, 0, Params{Page: 0, PageSize: 10}.Offset())
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(Params{Page: 9, PageSize: 10}, 21)
	assert.Equal(t, 3, meta.TotalPages)
	assert.EqualValues(t, 21, meta.TotalCount)
	assert.Equal(t, 9, meta.Page)

	assert.Equal(t, 0, NewMeta(Params{Page: 1, PageSize: 10}, 0).TotalPages)
}
