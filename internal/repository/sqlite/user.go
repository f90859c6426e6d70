package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// Upsert stores a Discord login.
//
// A returning player keeps the internal ID their guesses and statistics are
// keyed by; only name, avatar and updated_at change. The insert-or-update is
// one statement, so two first logins racing on the same Discord account
// land on the same row. The caller's struct is refreshed from the stored row.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	var id string
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (id, discord_id, name, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (discord_id) DO UPDATE SET
		     name       = excluded.name,
		     avatar_url = excluded.avatar_url,
		     updated_at = excluded.updated_at
		 RETURNING id`,
		xid.New().String(),
		user.DiscordID,
		user.Name,
		user.AvatarURL,
		now,
		now,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user (discordID=%s): %w", user.DiscordID, err)
	}

	stored, err := db.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// GetUserByID returns apperror.ErrNotFound for an unknown id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, discord_id, name, avatar_url, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.DiscordID, &u.Name, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}
