// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Song is one entry of the catalog players guess from.
//
// Album is a plain string rather than *string: an empty album means "unknown",
// and an unknown album can never produce an ALBUM outcome (see game.Evaluate).
//
// Songs are immutable once created: nothing in the API updates them.
type Song struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	Album     string    `json:"album"     db:"album"`
	Link      string    `json:"link"      db:"link"`     // Audio file URL
	Cover     string    `json:"cover"     db:"cover"`    // Cover art URL
	Duration  int       `json:"duration"  db:"duration"` // Total length in seconds
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
