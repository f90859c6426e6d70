// Package repository declares the storage contracts the service layer depends on.
// Implementations live in sub-packages: sqlite (durable, signed-in players)
// and memory (guest rounds kept only for the life of the process).
package repository

import (
	"context"

	"github.com/sakif/heardle/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// SongRepository is the song catalog.
type SongRepository interface {
	CreateSong(ctx context.Context, song *model.Song) error
	GetSongByID(ctx context.Context, id string) (*model.Song, error)
	// ListSongs returns every song ordered by name, case-insensitively.
	ListSongs(ctx context.Context) ([]model.Song, error)
}

// PuzzleRepository stores daily and custom puzzles.
type PuzzleRepository interface {
	// GetCurrentDaily follows the "current" daily pointer.
	GetCurrentDaily(ctx context.Context) (*model.Puzzle, error)
	// SetDaily inserts the puzzle for its day and moves the pointer to it.
	// A second puzzle for the same day is rejected with apperror.ErrConflict.
	SetDaily(ctx context.Context, puzzle *model.Puzzle) error
	CreateCustom(ctx context.Context, puzzle *model.Puzzle) error
	GetPuzzle(ctx context.Context, id string) (*model.Puzzle, error)
	ListCustomByCreator(ctx context.Context, creatorID string, opts ListOptions) ([]model.Puzzle, error)
	DeleteCustom(ctx context.Context, id string) error
}

// RoundRepository persists the guesses that make up a round.
type RoundRepository interface {
	// LoadRound returns a player's guesses for a puzzle in sequence order.
	LoadRound(ctx context.Context, playerID, puzzleID string) ([]model.Guess, error)
	AppendGuess(ctx context.Context, guess model.Guess) error
}

type StatsRepository interface {
	// RecordOutcome folds one finished daily round into the user's statistics.
	RecordOutcome(ctx context.Context, userID string, won bool) (*model.Statistics, error)
	GetStats(ctx context.Context, userID string) (*model.Statistics, error)
}

type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
