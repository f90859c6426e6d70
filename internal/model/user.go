// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered player account.
//
// We use Discord OAuth as the identity provider, so the primary external
// identifier is the Discord snowflake. We still generate our own internal
// string ID (xid) so our primary keys are not tied to a third party's
// numbering scheme.
//
// WHY DiscordID string?
// Discord snowflakes are 64-bit integers but the API sends them as JSON
// strings. Keeping them as strings avoids any precision loss on the way
// through. The UNIQUE constraint on discord_id in the DB ensures one Discord
// account maps to exactly one app account.
type User struct {
	ID        string    `json:"id"        db:"id"`
	DiscordID string    `json:"discordId" db:"discord_id"`
	Name      string    `json:"name"      db:"name"`
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Player identifies whoever is playing a round: a signed-in user or a guest
// carrying only a cookie id. Guest rounds live in the local store.
type Player struct {
	ID    string
	Guest bool
}
