package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass classifies a text backend failure for the fallback loop.
type ErrorClass string

const (
	// ErrClassUnauthorized covers authorization and forbidden responses.
	ErrClassUnauthorized ErrorClass = "unauthorized"
	// ErrClassRateLimited covers quota and rate-limit responses.
	ErrClassRateLimited ErrorClass = "rate_limited"
	// ErrClassModelUnavailable covers unknown or retired model identifiers.
	ErrClassModelUnavailable ErrorClass = "model_unavailable"
	// ErrClassOther covers everything else; treated as fatal (fail closed).
	ErrClassOther ErrorClass = "other"
)

// BackendError is a classified text backend failure.
type BackendError struct {
	Class   ErrorClass
	Model   string
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("text backend error (%s, model=%s, status=%d): %s", e.Class, e.Model, e.Status, e.Message)
}

// IsModelUnavailable reports whether err means the candidate model cannot be
// used and the next candidate should be tried.
func IsModelUnavailable(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Class == ErrClassModelUnavailable
}

// IsFatal reports whether err must stop the whole candidate loop:
// authorization, quota, or any unclassified condition.
func IsFatal(err error) bool {
	var be *BackendError
	if !errors.As(err, &be) {
		return true
	}
	return be.Class != ErrClassModelUnavailable
}

// classify maps an HTTP status and response body onto an ErrorClass.
func classify(status int, body string) ErrorClass {
	switch status {
	case 401, 403:
		return ErrClassUnauthorized
	case 429:
		return ErrClassRateLimited
	case 404:
		return ErrClassModelUnavailable
	}
	lower := strings.ToLower(body)
	if strings.Contains(lower, "model") &&
		(strings.Contains(lower, "not found") ||
			strings.Contains(lower, "does not exist") ||
			strings.Contains(lower, "invalid model") ||
			strings.Contains(lower, "unknown model")) {
		return ErrClassModelUnavailable
	}
	return ErrClassOther
}
