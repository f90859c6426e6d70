package model

import "time"

// Statistics is a signed-in player's running record across daily puzzles.
type Statistics struct {
	UserID        string    `json:"userId"        db:"user_id"`
	GamesPlayed   int       `json:"gamesPlayed"   db:"games_played"`
	GamesWon      int       `json:"gamesWon"      db:"games_won"`
	CurrentStreak int       `json:"currentStreak" db:"current_streak"`
	MaxStreak     int       `json:"maxStreak"     db:"max_streak"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}

// WinPercentage returns games won as a percentage of games played,
// rounded down. Zero games played yields 0.
func (s Statistics) WinPercentage() int {
	if s.GamesPlayed == 0 {
		return 0
	}
	return s.GamesWon * 100 / s.GamesPlayed
}
