package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

// compile-time check that *DB implements repository.SongRepository
var _ repository.SongRepository = (*DB)(nil)

// CreateSong inserts a song into the catalog. The ID is generated here unless
// the caller already set one (seed files carry stable ids).
func (db *DB) CreateSong(ctx context.Context, song *model.Song) error {
	if song.ID == "" {
		song.ID = xid.New().String()
	}
	song.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO songs (id, name, album, link, cover, duration, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		song.ID,
		song.Name,
		song.Album,
		song.Link,
		song.Cover,
		song.Duration,
		song.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("song", song.Name)
		}
		return fmt.Errorf("sqlite: creating song: %w", err)
	}

	return nil
}

// GetSongByID retrieves a single song. Returns apperror.ErrNotFound if absent.
func (db *DB) GetSongByID(ctx context.Context, id string) (*model.Song, error) {
	var s model.Song

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, album, link, cover, duration, created_at
		 FROM songs
		 WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.Name, &s.Album, &s.Link, &s.Cover, &s.Duration, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("song", id)
		}
		return nil, fmt.Errorf("sqlite: getting song %s: %w", id, err)
	}

	return &s, nil
}

// ListSongs returns the whole catalog ordered by name, ignoring case.
// The catalog is small (one artist's discography), so there is no paging.
func (db *DB) ListSongs(ctx context.Context) ([]model.Song, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, album, link, cover, duration, created_at
		 FROM songs
		 ORDER BY name COLLATE NOCASE ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing songs: %w", err)
	}
	defer rows.Close()

	songs := make([]model.Song, 0, 64)
	for rows.Next() {
		var s model.Song
		if err := rows.Scan(&s.ID, &s.Name, &s.Album, &s.Link, &s.Cover, &s.Duration, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning song row: %w", err)
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating songs: %w", err)
	}

	return songs, nil
}
