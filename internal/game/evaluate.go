// Package game holds the rules of a Heardle round: how a guess is classified,
// when a round is over, how much of the clip a player may hear and when the
// next daily puzzle arrives.
//
// Everything here is synchronous and free of I/O. Loading and saving rounds is
// the service layer's job; this package only decides what the next state is.
package game

import "github.com/sakif/heardle/internal/model"

// Evaluate classifies candidate against target.
//
//   - CORRECT when the names match exactly (case-sensitive)
//   - ALBUM when the names differ but both songs carry the same, non-empty album
//   - WRONG otherwise
//
// A target without an album can therefore only ever yield CORRECT or WRONG.
func Evaluate(candidate, target model.Song) model.Outcome {
	if candidate.Name == target.Name {
		return model.OutcomeCorrect
	}
	if target.Album != "" && candidate.Album == target.Album {
		return model.OutcomeAlbum
	}
	return model.OutcomeWrong
}
