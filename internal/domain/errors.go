package domain

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is an AuthError (401): credentials are cleared and the user must log in again.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is an AuthorizationError (403), reported inline without redirect.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on 409, e.g. joining a challenge twice.
	ErrConflict = errors.New("conflict")
	// ErrValidation covers client-side and server-side (400/422) validation failures.
	ErrValidation = errors.New("validation failed")
	// ErrTransient covers network failures and 5xx responses.
	ErrTransient = errors.New("transient network error")

	// ErrUnauthenticated is returned when an operation needs a logged-in caller.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrChallengeNotFound means the backend returned no challenge for the id.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrNoQuestions means the challenge exists but has no eligible questions.
	ErrNoQuestions = errors.New("no questions available for this challenge")
	// ErrNotInProgress is returned for attempt mutations outside the in-progress phase.
	ErrNotInProgress = errors.New("attempt is not in progress")
	// ErrAlreadySubmitted is returned when a submission is already in flight or done.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrTimeExpired is returned for answer changes after the countdown reached zero.
	ErrTimeExpired = errors.New("time is up")
	// ErrNotLoaded is returned when starting a session before its questions are loaded.
	ErrNotLoaded = errors.New("challenge not loaded")
	// ErrInvalidQuestionIndex is returned for out-of-range question jumps.
	ErrInvalidQuestionIndex = errors.New("invalid question index")
	// ErrInvalidOption is returned for out-of-range option selections.
	ErrInvalidOption = errors.New("invalid option index")
)

// APIError is a non-2xx response (or transport failure) from the QuizBattle API.
type APIError struct {
	Status  int
	Message string
	Kind    error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// KindForStatus maps an HTTP status code onto the error taxonomy.
func KindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrValidation
	default:
		return ErrTransient
	}
}

// ValidationError blocks a request before any network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// UserMessage returns the text to surface to the user for err.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	return fallback
}
