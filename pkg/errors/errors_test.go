package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrShareUnreachable, http.StatusServiceUnavailable, "stat %s: %v", "/mnt/share", "permission denied")
	assert.ErrorIs(t, err, ErrShareUnreachable)
	assert.Contains(t, err.Error(), "/mnt/share")
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrRebuildInProgress, http.StatusConflict},
		{ErrRebuildCooldown, http.StatusTooManyRequests},
		{ErrNoKeywords, http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrNoIndex, http.StatusServiceUnavailable},
		{ErrShareUnreachable, http.StatusServiceUnavailable},
		{ErrTimeout, http.StatusServiceUnavailable},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusCode(tt.err), "error: %v", tt.err)
	}
}

func TestHTTPStatusCodeWrapped(t *testing.T) {
	// A wrapped sentinel still maps, and an AppError's explicit code wins.
	wrapped := fmt.Errorf("handling query: %w", ErrNoIndex)
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusCode(wrapped))

	app := New(ErrInternal, http.StatusBadGateway, "upstream broke")
	assert.Equal(t, http.StatusBadGateway, HTTPStatusCode(app))
}
