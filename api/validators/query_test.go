package validators

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/orders?page=3&size=abc&big=5000", nil)

	page, err := ParseQueryInt(req, "page", 1, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	missing, err := ParseQueryInt(req, "absent", 7, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 7, missing)

	_, err = ParseQueryInt(req, "size", 1, 1, 100)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = ParseQueryInt(req, "big", 1, 1, 1000)
	require.Error(t, err)
	assert.Equal(t, map[string]any{"field": "big", "min": 1, "max": 1000}, pkgerrors.As(err).Details())
}

func TestParseQueryUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest("GET", "/orders?created_by_user_id="+id.String()+"&bad=nope", nil)

	got, err := ParseQueryUUID(req, "created_by_user_id")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)

	none, err := ParseQueryUUID(req, "absent")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = ParseQueryUUID(req, "bad")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestParseQueryTime(t *testing.T) {
	req := httptest.NewRequest("GET", "/orders?from=2026-03-01&to=2026-03-01&at=2026-03-01T08:30:00Z&bad=03/01/2026", nil)

	from, err := ParseQueryTime(req, "from", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *from)

	to, err := ParseQueryTime(req, "to", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 23, 59, 59, 999999999, time.UTC), *to)

	at, err := ParseQueryTime(req, "at", true)
	require.NoError(t, err)
	assert.Equal(t, 8, at.Hour())

	none, err := ParseQueryTime(req, "absent", false)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = ParseQueryTime(req, "bad", false)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
