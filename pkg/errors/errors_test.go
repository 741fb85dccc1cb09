package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataTable(t *testing.T) {
	cases := map[Code]Metadata{
		CodeValidation:        {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
		CodeUnauthorized:      {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
		CodeForbidden:         {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
		CodeNotFound:          {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
		CodeConflict:          {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected"},
		CodeEmptyCart:         {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "cart is empty"},
		CodeSequenceExhausted: {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: "order number unavailable", Retryable: true},
		CodeIdempotency:       {HTTPStatus: http.StatusConflict, PublicMessage: "idempotency key reused", DetailsAllowed: true},
		CodeInternal:          {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error", Retryable: true},
		CodeDependency:        {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: "dependency unavailable", Retryable: true, DetailsAllowed: true},
	}
	for code, want := range cases {
		t.Run(string(code), func(t *testing.T) {
			got := MetadataFor(code)
			assert.Equal(t, want.HTTPStatus, got.HTTPStatus)
			assert.Equal(t, want.PublicMessage, got.PublicMessage)
			assert.Equal(t, want.Retryable, got.Retryable)
			assert.Equal(t, want.DetailsAllowed, got.DetailsAllowed)
		})
	}

	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestDetailsAndCause(t *testing.T) {
	err := New(CodeValidation, "missing foo")
	assert.Equal(t, CodeValidation, err.Code())
	assert.Equal(t, "missing foo", err.Message())
	assert.Nil(t, err.Details())
	assert.Equal(t, map[string]any{"field": "foo"}, err.WithDetails(map[string]any{"field": "foo"}).Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeConflict, wrapped.Code())
}

func TestNilErrorAccessors(t *testing.T) {
	var err *Error
	assert.Equal(t, CodeInternal, err.Code())
	assert.Empty(t, err.Message())
	assert.Nil(t, err.Details())
	assert.Nil(t, err.WithDetails("ignored"))
}

func TestAsAndIsCodeFollowTheChain(t *testing.T) {
	inner := New(CodeEmptyCart, "nothing to convert")
	outer := fmt.Errorf("convert: %w", inner)

	require.NotNil(t, As(outer))
	assert.Same(t, inner, As(outer))
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))

	assert.True(t, IsCode(outer, CodeEmptyCart))
	assert.False(t, IsCode(outer, CodeNotFound))
	assert.False(t, IsCode(stdErrors.New("plain"), CodeInternal))
}

func TestErrorStringCarriesCause(t *testing.T) {
	assert.Equal(t, "DEPENDENCY_ERROR: load cart: dial tcp: refused",
		Wrap(CodeDependency, stdErrors.New("dial tcp: refused"), "load cart").Error())
	assert.Equal(t, "NOT_FOUND: order not found", New(CodeNotFound, "order not found").Error())
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", New(CodeValidation, "bad"), false},
		{"sequence", New(CodeSequenceExhausted, "out of numbers"), true},
		{"wrapped dependency", fmt.Errorf("wrapped: %w", New(CodeDependency, "redis")), true},
		{"untyped", stdErrors.New("untyped"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Retryable(tc.err))
		})
	}
}
