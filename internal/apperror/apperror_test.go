package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"typed", Validation("bad"), CodeValidation},
		{"wrapped typed", fmt.Errorf("outer: %w", NotFound("order not found")), CodeNotFound},
		{"unique violation", &pq.Error{Code: "23505"}, CodeConflict},
		{"plain", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Product not found", PublicMessage(NotFound("Product not found")))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "internal server error", PublicMessage(Wrap(CodeInternal, errors.New("x"), "secret detail")))
	assert.Equal(t, "conflict detected", PublicMessage(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.Equal(t, "Forbidden", PublicMessage(New(CodeForbidden, "")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("vendor down")
	err := Wrap(CodeDependency, cause, "QPay create invoice failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
	assert.Contains(t, err.Error(), "vendor down")
}

func TestIsMatchesCodeAndMessage(t *testing.T) {
	sentinel := NotFound("Order not found")
	err := fmt.Errorf("load: %w", NotFound("Order not found"))

	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, NotFound("Product not found"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(CodeUnauthorized))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(CodeRateLimit))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Code("NOPE")))
}
