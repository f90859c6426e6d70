package game

import (
	"math"

	"github.com/sakif/heardle/internal/model"
)

// AllowedElapsedSeconds is how far into the clip, measured from the puzzle's
// start offset, the player may listen right now: one second more per guess
// made, capped at the clip length. A finished round unlocks the whole clip.
func AllowedElapsedSeconds(guessCount int, terminal bool) float64 {
	if terminal {
		return model.ClipSeconds
	}
	if guessCount < 0 {
		guessCount = 0
	}
	return float64(min(guessCount+1, model.ClipSeconds))
}

// ShouldPause reports whether playback at elapsed seconds has reached the
// player's allowance. The audio surface calls it on every time update.
// Negative or NaN positions never pause.
func ShouldPause(elapsed float64, guessCount int, terminal bool) bool {
	if math.IsNaN(elapsed) || elapsed < 0 {
		return false
	}
	return elapsed >= AllowedElapsedSeconds(guessCount, terminal)
}

// Window is the playback allowance sent to clients.
//
// When ResetOnPause is true the player must stop and seek back to StartOffset
// once AllowedSeconds is reached. Finished rounds play the clip out instead.
type Window struct {
	StartOffset    int     `json:"startOffset"`
	AllowedSeconds float64 `json:"allowedSeconds"`
	ClipSeconds    int     `json:"clipSeconds"`
	ResetOnPause   bool    `json:"resetOnPause"`
}

// PlaybackWindow builds the Window for a puzzle clip starting at startOffset.
func PlaybackWindow(startOffset, guessCount int, terminal bool) Window {
	if startOffset < 0 {
		startOffset = 0
	}
	return Window{
		StartOffset:    startOffset,
		AllowedSeconds: AllowedElapsedSeconds(guessCount, terminal),
		ClipSeconds:    model.ClipSeconds,
		ResetOnPause:   !terminal,
	}
}
