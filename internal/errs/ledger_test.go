package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("get machine: %w", NewNotFound("machine", 4))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrReference))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
		code   string
	}{
		{"validation", NewValidation("Validation failed", FieldError{Field: "name", Error: "is required"}), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"reference", NewReference("machine", 9), http.StatusUnprocessableEntity, "MACHINE_NOT_FOUND"},
		{"not found", NewNotFound("machine", 9), http.StatusNotFound, "MACHINE_NOT_FOUND"},
		{"store", NewStore("insert machine", errors.New("connection refused")), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := ToHTTPError(tt.err)
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, tt.code, httpErr.Code)
		})
	}
}

func TestStoreErrorHidesCause(t *testing.T) {
	httpErr := ToHTTPError(NewStore("insert machine", errors.New("password authentication failed")))
	assert.NotContains(t, httpErr.Message, "password")
}

func TestValidationCarriesFields(t *testing.T) {
	httpErr := ToHTTPError(NewValidation("Validation failed", FieldError{Field: "cost", Error: "must not be negative"}))
	assert.Equal(t, []FieldError{{Field: "cost", Error: "must not be negative"}}, httpErr.Errors)
}
