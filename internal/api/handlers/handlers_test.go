package handlers

import (
	"net/http"
	"testing"

	"passui/internal/outcome"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := map[outcome.Category]int{
		outcome.Success:                      http.StatusOK,
		outcome.Mismatch:                     http.StatusBadRequest,
		outcome.PolicyViolation:              http.StatusBadRequest,
		outcome.DirectoryConstraintViolation: http.StatusBadRequest,
		outcome.AuthenticationFailure:        http.StatusUnauthorized,
		outcome.DirectoryUnreachable:         http.StatusServiceUnavailable,
		outcome.DirectoryProtocolError:       http.StatusBadGateway,
	}
	for category, want := range tests {
		assert.Equal(t, want, StatusFor(category), category.String())
	}
}
