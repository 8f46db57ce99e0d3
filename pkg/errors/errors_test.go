package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(KindNotFound, "entity %q not in graph", "Acme")
	assert.Equal(t, `not_found: entity "Acme" not in graph`, err.Error())

	wrapped := Wrap(KindStoreUnavailable, fmt.Errorf("dial tcp: refused"), "open store")
	assert.Equal(t, "store_unavailable: open store: dial tcp: refused", wrapped.Error())
}

func TestUnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := Wrap(KindStoreUnavailable, cause, "open store")

	assert.Equal(t, cause, Unwrap(err))
	assert.True(t, Is(err, New(KindStoreUnavailable, "anything")))
	assert.False(t, Is(err, New(KindNotFound, "anything")))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindTimeout, KindOf(New(KindTimeout, "budget exceeded")))
	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))

	// The kind survives further wrapping.
	inner := New(KindModelUnavailable, "missing artifact")
	outer := fmt.Errorf("startup: %w", inner)
	assert.Equal(t, KindModelUnavailable, KindOf(outer))
	assert.True(t, IsKind(outer, KindModelUnavailable))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(KindStoreUnavailable, "reset")))
	assert.False(t, Retryable(New(KindNotFound, "missing")))
	assert.False(t, Retryable(New(KindModelUnavailable, "corrupt")))
	assert.False(t, Retryable(fmt.Errorf("plain")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindInvalidInput, http.StatusBadRequest},
		{KindInvalidCountryCode, http.StatusBadRequest},
		{KindInvalidFeatureVector, http.StatusUnprocessableEntity},
		{KindModelUnavailable, http.StatusUnprocessableEntity},
		{KindStoreUnavailable, http.StatusServiceUnavailable},
		{KindTimeout, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(New(tt.kind, "x")), string(tt.kind))
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("plain")))
}
