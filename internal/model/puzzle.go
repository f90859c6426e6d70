package model

import "time"

// PuzzleKind separates the global daily puzzle from user-created ones.
type PuzzleKind string

const (
	PuzzleDaily  PuzzleKind = "daily"
	PuzzleCustom PuzzleKind = "custom"
)

// ClipSeconds is the length of the audio window a puzzle exposes.
const ClipSeconds = 6

// Puzzle is one instance of "guess this song".
//
// The ID doubles as the share id for custom puzzles (/play/{id}).
// Day is only meaningful for daily puzzles, CreatorID only for custom ones.
type Puzzle struct {
	ID          string     `json:"id"          db:"id"`
	Kind        PuzzleKind `json:"kind"        db:"kind"`
	Song        Song       `json:"song"`
	StartOffset int        `json:"startOffset" db:"start_offset"` // Seconds into the song
	Day         int        `json:"day,omitempty"       db:"day"`
	CreatorID   string     `json:"creatorId,omitempty" db:"creator_id"`
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`
}
