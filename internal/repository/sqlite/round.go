package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

var _ repository.RoundRepository = (*DB)(nil)

// LoadRound returns the guesses a player made against a puzzle, in order.
// A player who has not guessed yet gets an empty slice, not an error.
func (db *DB) LoadRound(ctx context.Context, playerID, puzzleID string) ([]model.Guess, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, puzzle_id, player_id, seq, song_id, song_name, album, cover, outcome, created_at
		 FROM guesses
		 WHERE player_id = ? AND puzzle_id = ?
		 ORDER BY seq ASC`,
		playerID, puzzleID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading round: %w", err)
	}
	defer rows.Close()

	guesses := make([]model.Guess, 0, 6)
	for rows.Next() {
		var g model.Guess
		if err := rows.Scan(
			&g.ID, &g.PuzzleID, &g.PlayerID, &g.Seq, &g.SongID,
			&g.Name, &g.Album, &g.Cover, &g.Outcome, &g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning guess row: %w", err)
		}
		guesses = append(guesses, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating guesses: %w", err)
	}

	return guesses, nil
}

// AppendGuess writes one guess. The caller assigns ID, Seq and CreatedAt.
//
// If another writer already stored the same seq or the same song for this
// round, the UNIQUE constraints reject the insert with apperror.ErrConflict.
func (db *DB) AppendGuess(ctx context.Context, g model.Guess) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO guesses (id, puzzle_id, player_id, seq, song_id, song_name, album, cover, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.PuzzleID, g.PlayerID, g.Seq, g.SongID,
		g.Name, g.Album, g.Cover, g.Outcome, g.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("guess", fmt.Sprintf("%s#%d", g.PuzzleID, g.Seq))
		}
		return fmt.Errorf("sqlite: appending guess: %w", err)
	}
	return nil
}
