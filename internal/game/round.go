package game

import (
	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
)

// MaxGuesses is the attempt ceiling of every round.
const MaxGuesses = 6

// Status is the derived state of a round.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusWon        Status = "WON"
	StatusLost       Status = "LOST"
)

// Round is one player's ordered guesses against one puzzle.
//
// A Round is not safe for concurrent use. Callers serialize submissions per
// (player, puzzle) and rebuild the Round from storage for every request.
type Round struct {
	puzzleID string
	target   model.Song
	guesses  []model.Guess
}

// NewRound rebuilds a round from previously stored guesses, which must be in
// sequence order. The slice is copied.
func NewRound(puzzleID string, target model.Song, guesses []model.Guess) *Round {
	g := make([]model.Guess, len(guesses), max(len(guesses), MaxGuesses))
	copy(g, guesses)
	return &Round{puzzleID: puzzleID, target: target, guesses: g}
}

// SubmitGuess evaluates candidate and appends it as the next guess.
//
// It fails with apperror.ErrRoundClosed once the round is won or lost, and
// with apperror.ErrDuplicateGuess if a song with the same name was already
// guessed. A rejected guess leaves the round untouched.
//
// The returned Guess carries PuzzleID, Seq, song fields and Outcome; the
// caller fills in ID, PlayerID and CreatedAt before persisting it.
func (r *Round) SubmitGuess(candidate model.Song) (model.Guess, error) {
	if r.IsTerminal() {
		return model.Guess{}, apperror.RoundClosed(r.puzzleID)
	}
	for _, g := range r.guesses {
		if g.Name == candidate.Name {
			return model.Guess{}, apperror.DuplicateGuess(candidate.Name)
		}
	}

	guess := model.Guess{
		PuzzleID: r.puzzleID,
		Seq:      len(r.guesses) + 1,
		SongID:   candidate.ID,
		Name:     candidate.Name,
		Album:    candidate.Album,
		Cover:    candidate.Cover,
		Outcome:  Evaluate(candidate, r.target),
	}
	r.guesses = append(r.guesses, guess)
	return guess, nil
}

// Status reports WON if any guess was correct, LOST once the ceiling is
// reached without one, and IN_PROGRESS otherwise.
func (r *Round) Status() Status {
	for _, g := range r.guesses {
		if g.Outcome == model.OutcomeCorrect {
			return StatusWon
		}
	}
	if len(r.guesses) >= MaxGuesses {
		return StatusLost
	}
	return StatusInProgress
}

// IsTerminal reports whether the round accepts no more guesses.
func (r *Round) IsTerminal() bool {
	return r.Status() != StatusInProgress
}

// Len returns the number of guesses made so far.
func (r *Round) Len() int {
	return len(r.guesses)
}

// Guesses returns a copy of the recorded guesses in sequence order.
func (r *Round) Guesses() []model.Guess {
	out := make([]model.Guess, len(r.guesses))
	copy(out, r.guesses)
	return out
}

// Target returns the song being guessed.
func (r *Round) Target() model.Song {
	return r.target
}
