// Package apperr defines the error taxonomy shared by the quiz core and its HTTP surface.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned for bad creator name, description or answer input.
	ErrValidation = errors.New("validation error")
	// ErrGenerationFormat is returned when the generation collaborator returns the wrong shape.
	ErrGenerationFormat = errors.New("generation format error")
	// ErrNotFound is returned when a quiz or session lookup finds nothing.
	ErrNotFound = errors.New("not found")
	// ErrIncompleteAnswers is returned when scoring is attempted before every question is answered.
	ErrIncompleteAnswers = errors.New("incomplete answers")
	// ErrTransport is returned when the generation collaborator or a store is unreachable.
	ErrTransport = errors.New("transport error")
	// ErrInvalidTransition is returned when an operation is not allowed in the current lifecycle state.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrConflict is returned on a duplicate create or a concurrent generation.
	ErrConflict = errors.New("conflict")
)

// Status maps an error to the HTTP status it should be reported with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrIncompleteAnswers):
		return http.StatusBadRequest
	case errors.Is(err, ErrGenerationFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
