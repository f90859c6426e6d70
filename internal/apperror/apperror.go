// Package apperror defines the error vocabulary shared by the game, the
// services and the HTTP layer.
//
// Callers match on the sentinels with errors.Is; the *AppError carries the
// client-facing message and, for input errors, the offending field. Only the
// handler package turns these into status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Request and storage errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrForbidden   = errors.New("forbidden")
	ErrPersistence = errors.New("persistence failure")
)

// Round rule violations.
var (
	ErrRoundClosed    = errors.New("round closed")
	ErrDuplicateGuess = errors.New("duplicate guess")
)

// AppError pairs a sentinel with a message safe to show a player.
type AppError struct {
	Err     error
	Message string
	Field   string // request field at fault, if any
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing song, puzzle or user.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation, such as a second puzzle for the
// same day or a guess slot another request already filled.
func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// RoundClosed is returned when a guess arrives after the round was won or lost.
func RoundClosed(puzzleID string) *AppError {
	return &AppError{
		Err:     ErrRoundClosed,
		Message: fmt.Sprintf("round for puzzle %s is already finished", puzzleID),
	}
}

// DuplicateGuess is returned when the same song is guessed twice in one round.
func DuplicateGuess(songName string) *AppError {
	return &AppError{
		Err:     ErrDuplicateGuess,
		Message: fmt.Sprintf("%s was already guessed", songName),
		Field:   "songId",
	}
}

// Persistence wraps a storage failure. errors.Is matches both ErrPersistence
// and the driver error underneath; the message names only the operation.
func Persistence(op string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrPersistence, err),
		Message: fmt.Sprintf("failed to %s", op),
	}
}
