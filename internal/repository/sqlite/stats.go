package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

var _ repository.StatsRepository = (*DB)(nil)

// RecordOutcome adds one finished daily round to a user's statistics.
//
// A win extends the current streak (and the max streak if it is passed);
// a loss resets the current streak to zero. In an SQLite UPDATE every
// right-hand side sees the row's old values, so max_streak compares against
// current_streak + 1.
func (db *DB) RecordOutcome(ctx context.Context, userID string, won bool) (*model.Statistics, error) {
	now := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning stats transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO statistics (user_id, updated_at) VALUES (?, ?)
		 ON CONFLICT(user_id) DO NOTHING`,
		userID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating stats row for %s: %w", userID, err)
	}

	winInt := 0
	if won {
		winInt = 1
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE statistics SET
			games_played   = games_played + 1,
			games_won      = games_won + ?,
			current_streak = CASE WHEN ? = 1 THEN current_streak + 1 ELSE 0 END,
			max_streak     = CASE WHEN ? = 1 THEN MAX(max_streak, current_streak + 1) ELSE max_streak END,
			updated_at     = ?
		 WHERE user_id = ?`,
		winInt, winInt, winInt, now, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating stats for %s: %w", userID, err)
	}

	stats, err := scanStats(tx.QueryRowContext(ctx, statsQuery, userID))
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading stats for %s: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing stats: %w", err)
	}
	return stats, nil
}

// GetStats returns a user's statistics, or apperror.ErrNotFound if the user
// has never finished a daily puzzle.
func (db *DB) GetStats(ctx context.Context, userID string) (*model.Statistics, error) {
	stats, err := scanStats(db.conn.QueryRowContext(ctx, statsQuery, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("statistics", userID)
		}
		return nil, fmt.Errorf("sqlite: getting stats for %s: %w", userID, err)
	}
	return stats, nil
}

const statsQuery = `
	SELECT user_id, games_played, games_won, current_streak, max_streak, updated_at
	FROM statistics
	WHERE user_id = ?`

func scanStats(row rowScanner) (*model.Statistics, error) {
	var s model.Statistics
	if err := row.Scan(&s.UserID, &s.GamesPlayed, &s.GamesWon, &s.CurrentStreak, &s.MaxStreak, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
