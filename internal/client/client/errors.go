package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/organlink/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("email already registered")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Details []common.FieldViolation
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Message, e.Status, strings.Join(parts, "; "))
}

// Is lets callers match API errors by class with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == 401
	case ErrConflict:
		return e.Status == 409
	case ErrUnavailable:
		return e.Status == 503
	}
	return false
}
