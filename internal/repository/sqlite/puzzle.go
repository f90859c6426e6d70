package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

var _ repository.PuzzleRepository = (*DB)(nil)

// currentDailyKey is the sentinel key of the single daily pointer row.
const currentDailyKey = "current"

// puzzleColumns selects a puzzle joined with its song, in scanPuzzle order.
const puzzleColumns = `
	p.id, p.kind, p.start_offset, p.day, p.creator_id, p.created_at,
	s.id, s.name, s.album, s.link, s.cover, s.duration, s.created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPuzzle(row rowScanner) (*model.Puzzle, error) {
	var p model.Puzzle
	err := row.Scan(
		&p.ID, &p.Kind, &p.StartOffset, &p.Day, &p.CreatorID, &p.CreatedAt,
		&p.Song.ID, &p.Song.Name, &p.Song.Album, &p.Song.Link, &p.Song.Cover, &p.Song.Duration, &p.Song.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetCurrentDaily follows the daily pointer to the active daily puzzle.
// Returns apperror.ErrNotFound until a daily puzzle has been provisioned.
func (db *DB) GetCurrentDaily(ctx context.Context) (*model.Puzzle, error) {
	p, err := scanPuzzle(db.conn.QueryRowContext(ctx,
		`SELECT `+puzzleColumns+`
		 FROM daily_pointer d
		 JOIN puzzles p ON p.id = d.puzzle_id
		 JOIN songs s ON s.id = p.song_id
		 WHERE d.key = ?`,
		currentDailyKey,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("daily puzzle", currentDailyKey)
		}
		return nil, fmt.Errorf("sqlite: getting current daily puzzle: %w", err)
	}
	return p, nil
}

// SetDaily inserts a daily puzzle and points "current" at it, in one transaction.
//
// Only puzzle.Song.ID is read from the song; the full song is loaded back so
// the caller gets a complete puzzle.
func (db *DB) SetDaily(ctx context.Context, puzzle *model.Puzzle) error {
	puzzle.ID = xid.New().String()
	puzzle.Kind = model.PuzzleDaily
	puzzle.CreatorID = ""
	puzzle.CreatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning daily transaction: %w", err)
	}
	// Rollback after Commit is a no-op, so this is safe on every path.
	defer tx.Rollback()

	if err := insertPuzzle(ctx, tx, puzzle); err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("daily puzzle", strconv.Itoa(puzzle.Day))
		}
		return fmt.Errorf("sqlite: inserting daily puzzle: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO daily_pointer (key, puzzle_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET puzzle_id = excluded.puzzle_id, updated_at = excluded.updated_at`,
		currentDailyKey, puzzle.ID, puzzle.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: moving daily pointer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing daily puzzle: %w", err)
	}

	return db.fillSong(ctx, puzzle)
}

// CreateCustom stores a user-made puzzle. Its ID is the share id.
func (db *DB) CreateCustom(ctx context.Context, puzzle *model.Puzzle) error {
	puzzle.ID = xid.New().String()
	puzzle.Kind = model.PuzzleCustom
	puzzle.Day = 0
	puzzle.CreatedAt = time.Now()

	if err := insertPuzzle(ctx, db.conn, puzzle); err != nil {
		return fmt.Errorf("sqlite: creating custom puzzle: %w", err)
	}

	return db.fillSong(ctx, puzzle)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertPuzzle(ctx context.Context, ex execer, p *model.Puzzle) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO puzzles (id, kind, song_id, start_offset, day, creator_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Kind, p.Song.ID, p.StartOffset, p.Day, p.CreatorID, p.CreatedAt,
	)
	return err
}

func (db *DB) fillSong(ctx context.Context, p *model.Puzzle) error {
	song, err := db.GetSongByID(ctx, p.Song.ID)
	if err != nil {
		return err
	}
	p.Song = *song
	return nil
}

// GetPuzzle retrieves a daily or custom puzzle by id.
func (db *DB) GetPuzzle(ctx context.Context, id string) (*model.Puzzle, error) {
	p, err := scanPuzzle(db.conn.QueryRowContext(ctx,
		`SELECT `+puzzleColumns+`
		 FROM puzzles p
		 JOIN songs s ON s.id = p.song_id
		 WHERE p.id = ?`,
		id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("puzzle", id)
		}
		return nil, fmt.Errorf("sqlite: getting puzzle %s: %w", id, err)
	}
	return p, nil
}

// ListCustomByCreator returns a creator's custom puzzles, newest first.
func (db *DB) ListCustomByCreator(ctx context.Context, creatorID string, opts repository.ListOptions) ([]model.Puzzle, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := max(opts.Offset, 0)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+puzzleColumns+`
		 FROM puzzles p
		 JOIN songs s ON s.id = p.song_id
		 WHERE p.kind = 'custom' AND p.creator_id = ?
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT ? OFFSET ?`,
		creatorID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing custom puzzles: %w", err)
	}
	defer rows.Close()

	puzzles := make([]model.Puzzle, 0, limit)
	for rows.Next() {
		p, err := scanPuzzle(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning puzzle row: %w", err)
		}
		puzzles = append(puzzles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating puzzles: %w", err)
	}

	return puzzles, nil
}

// DeleteCustom removes a custom puzzle and, through ON DELETE CASCADE, every
// guess made against it. Daily puzzles are never deleted.
func (db *DB) DeleteCustom(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM puzzles WHERE id = ? AND kind = 'custom'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting puzzle %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("custom puzzle", id)
	}

	return nil
}
