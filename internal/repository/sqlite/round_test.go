package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
)

func createTestDaily(t *testing.T, db *DB, song *model.Song, day int) *model.Puzzle {
	t.Helper()
	p := &model.Puzzle{Song: model.Song{ID: song.ID}, Day: day}
	if err := db.SetDaily(context.Background(), p); err != nil {
		t.Fatalf("failed to create test daily: %v", err)
	}
	return p
}

func newGuess(puzzleID, playerID string, seq int, song *model.Song, outcome model.Outcome) model.Guess {
	return model.Guess{
		ID:        puzzleID + "-" + playerID + "-" + song.Name,
		PuzzleID:  puzzleID,
		PlayerID:  playerID,
		Seq:       seq,
		SongID:    song.ID,
		Name:      song.Name,
		Album:     song.Album,
		Cover:     song.Cover,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
}

func TestLoadRound_Empty(t *testing.T) {
	db := newTestDB(t)

	guesses, err := db.LoadRound(context.Background(), "player", "puzzle")
	if err != nil {
		t.Fatalf("LoadRound() error = %v", err)
	}
	if guesses == nil || len(guesses) != 0 {
		t.Errorf("LoadRound() = %v, want empty slice", guesses)
	}
}

func TestAppendGuess_RoundTripInOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	target := createTestSong(t, db, "Hello", "25")
	wrong := createTestSong(t, db, "Skyfall", "")
	near := createTestSong(t, db, "Water Under the Bridge", "25")
	p := createTestDaily(t, db, target, 1)

	want := []model.Guess{
		newGuess(p.ID, "alice", 1, wrong, model.OutcomeWrong),
		newGuess(p.ID, "alice", 2, near, model.OutcomeAlbum),
		newGuess(p.ID, "alice", 3, target, model.OutcomeCorrect),
	}
	// Insert out of order; LoadRound must sort by seq.
	for _, i := range []int{2, 0, 1} {
		if err := db.AppendGuess(ctx, want[i]); err != nil {
			t.Fatalf("AppendGuess(seq %d) error = %v", want[i].Seq, err)
		}
	}
	// Another player's round on the same puzzle is independent.
	if err := db.AppendGuess(ctx, newGuess(p.ID, "bob", 1, target, model.OutcomeCorrect)); err != nil {
		t.Fatalf("AppendGuess(bob) error = %v", err)
	}

	got, err := db.LoadRound(ctx, "alice", p.ID)
	if err != nil {
		t.Fatalf("LoadRound() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("LoadRound() returned %d guesses, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Seq != want[i].Seq || got[i].Name != want[i].Name || got[i].Outcome != want[i].Outcome {
			t.Errorf("guess %d = {%d %q %s}, want {%d %q %s}",
				i, got[i].Seq, got[i].Name, got[i].Outcome,
				want[i].Seq, want[i].Name, want[i].Outcome)
		}
		if got[i].PlayerID != "alice" {
			t.Errorf("guess %d PlayerID = %q, want alice", i, got[i].PlayerID)
		}
	}
}

func TestAppendGuess_UniqueConstraints(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	target := createTestSong(t, db, "Hello", "25")
	wrong := createTestSong(t, db, "Skyfall", "")
	other := createTestSong(t, db, "Someone Like You", "21")
	p := createTestDaily(t, db, target, 1)

	if err := db.AppendGuess(ctx, newGuess(p.ID, "alice", 1, wrong, model.OutcomeWrong)); err != nil {
		t.Fatalf("AppendGuess() error = %v", err)
	}

	tests := []struct {
		name  string
		guess model.Guess
	}{
		{"same seq", newGuess(p.ID, "alice", 1, other, model.OutcomeWrong)},
		{"same song", func() model.Guess {
			g := newGuess(p.ID, "alice", 2, wrong, model.OutcomeWrong)
			g.ID = "different-id"
			return g
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.AppendGuess(ctx, tt.guess)
			if !errors.Is(err, apperror.ErrConflict) {
				t.Errorf("AppendGuess() error = %v, want ErrConflict", err)
			}
		})
	}
}

func TestAppendGuess_SeqOutOfRange(t *testing.T) {
	db := newTestDB(t)
	target := createTestSong(t, db, "Hello", "25")
	p := createTestDaily(t, db, target, 1)

	err := db.AppendGuess(context.Background(), newGuess(p.ID, "alice", 7, target, model.OutcomeCorrect))
	if err == nil {
		t.Error("AppendGuess() with seq 7 should violate the CHECK constraint")
	}
}
