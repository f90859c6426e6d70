package model

import "time"

// Outcome classifies a guess against the puzzle's target song.
// The string values are part of the wire format.
type Outcome string

const (
	OutcomeCorrect Outcome = "CORRECT"
	OutcomeAlbum   Outcome = "ALBUM"
	OutcomeWrong   Outcome = "WRONG"
)

// Guess is one submitted song within a round. Seq is 1-based.
//
// The guessed song's display fields are copied in so a round can be rendered
// without joining back to the catalog.
type Guess struct {
	ID        string    `json:"id"        db:"id"`
	PuzzleID  string    `json:"puzzleId"  db:"puzzle_id"`
	PlayerID  string    `json:"-"         db:"player_id"`
	Seq       int       `json:"seq"       db:"seq"`
	SongID    string    `json:"songId"    db:"song_id"`
	Name      string    `json:"name"      db:"song_name"`
	Album     string    `json:"album"     db:"album"`
	Cover     string    `json:"cover"     db:"cover"`
	Outcome   Outcome   `json:"correctStatus" db:"outcome"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
