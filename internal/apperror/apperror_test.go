package apperror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	storageErr := errors.New("SQLITE_BUSY")

	tests := []struct {
		name     string
		err      *AppError
		sentinel error
		message  string
		field    string
	}{
		{"not found", NotFound("puzzle", "abc123"), ErrNotFound, "puzzle not found with id abc123", ""},
		{"validation", ValidationFailed("songId", "songId is required"), ErrValidation, "songId is required", "songId"},
		{"conflict", Conflict("daily puzzle", "42"), ErrConflict, "daily puzzle conflict with id 42", ""},
		{"forbidden", Forbidden("only the creator can delete this puzzle"), ErrForbidden, "only the creator can delete this puzzle", ""},
		{"round closed", RoundClosed("abc123"), ErrRoundClosed, "round for puzzle abc123 is already finished", ""},
		{"duplicate guess", DuplicateGuess("Fumes"), ErrDuplicateGuess, "Fumes was already guessed", "songId"},
		{"persistence", Persistence("save guess", storageErr), ErrPersistence, "failed to save guess", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.message, tt.err.Error())
			assert.Equal(t, tt.field, tt.err.Field)
		})
	}
}

func TestPersistence_KeepsDriverError(t *testing.T) {
	storageErr := errors.New("disk I/O error")
	err := Persistence("record outcome", storageErr)

	assert.ErrorIs(t, err, storageErr)
	assert.NotContains(t, err.Error(), "disk", "driver detail must not reach the client message")
}

func TestSentinelsDoNotOverlap(t *testing.T) {
	all := []error{ErrNotFound, ErrValidation, ErrConflict, ErrForbidden, ErrPersistence, ErrRoundClosed, ErrDuplicateGuess}

	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v matches %v", a, b)
			}
		}
	}
}

func TestAsRecoversField(t *testing.T) {
	var wrapped error = DuplicateGuess("Fumes")
	wrapped = errors.Join(errors.New("submit"), wrapped)

	var appErr *AppError
	if assert.ErrorAs(t, wrapped, &appErr) {
		assert.Equal(t, "songId", appErr.Field)
	}
}
