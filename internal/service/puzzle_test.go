package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/game"
	"github.com/sakif/heardle/internal/model"
)

func newTestPuzzleService(t *testing.T) (*PuzzleService, *fakePuzzleRepo) {
	t.Helper()
	repo := newFakePuzzleRepo()
	songs := newFakeSongRepo(songFumes, songFlorist, songSingle)
	return NewPuzzleService(repo, songs, game.DefaultResetHourUTC, discardLogger()), repo
}

func TestGetDailyPuzzle(t *testing.T) {
	svc, _ := newTestPuzzleService(t)
	ctx := context.Background()

	_, err := svc.GetDailyPuzzle(ctx, time.Now())
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "unprovisioned daily should be NotFound, got %v", err)

	set, err := svc.SetDaily(ctx, songFumes.ID, 30, 1)
	require.NoError(t, err)

	got, err := svc.GetDailyPuzzle(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, set.ID, got.ID)
	assert.Equal(t, "Fumes", got.Song.Name)
}

func TestGetDailyPuzzle_StalePointerStillServed(t *testing.T) {
	svc, repo := newTestPuzzleService(t)
	ctx := context.Background()
	_, err := svc.SetDaily(ctx, songFumes.ID, 0, 1)
	require.NoError(t, err)
	repo.puzzles[repo.current].CreatedAt = time.Now().Add(-72 * time.Hour)

	got, err := svc.GetDailyPuzzle(ctx, time.Now())
	require.NoError(t, err, "a missed rotation is logged, not an error")
	assert.Equal(t, 1, got.Day)
}

func TestGetDailyPuzzle_RotationWarning(t *testing.T) {
	day := func(h, m int) time.Time { return time.Date(2026, 10, 18, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		setAt    time.Time
		now      time.Time
		wantWarn bool
	}{
		{"set just before the reset", day(2, 55), day(15, 0), false},
		{"set just after the reset", day(3, 1), day(15, 0), false},
		{"set before the reset, read before it", day(2, 55), day(2, 58), false},
		{"missed one reset", day(3, 1).Add(-24 * time.Hour), day(15, 0), true},
		{"set hours before the reset", day(0, 30), day(15, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			repo := newFakePuzzleRepo()
			svc := NewPuzzleService(repo, newFakeSongRepo(songFumes), game.DefaultResetHourUTC,
				slog.New(slog.NewTextHandler(&logs, nil)))
			ctx := context.Background()

			_, err := svc.SetDaily(ctx, songFumes.ID, 0, 2)
			require.NoError(t, err)
			repo.puzzles[repo.current].CreatedAt = tt.setAt
			logs.Reset()

			got, err := svc.GetDailyPuzzle(ctx, tt.now)
			require.NoError(t, err)
			assert.Equal(t, 2, got.Day)
			if tt.wantWarn {
				assert.Contains(t, logs.String(), "level=WARN")
			} else {
				assert.NotContains(t, logs.String(), "level=WARN")
			}
		})
	}
}

func TestSetDaily_Validation(t *testing.T) {
	tests := []struct {
		name      string
		songID    string
		start     int
		day       int
		wantField string
	}{
		{"day zero", songFumes.ID, 0, 0, "day"},
		{"no song", "", 0, 1, "songId"},
		{"unknown song", "nope", 0, 1, "songId"},
		{"negative start", songFumes.ID, -1, 1, "startOffset"},
		{"clip runs past end", songFumes.ID, songFumes.Duration - model.ClipSeconds + 1, 1, "startOffset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestPuzzleService(t)

			_, err := svc.SetDaily(context.Background(), tt.songID, tt.start, tt.day)
			require.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestSetDaily_LastValidStart(t *testing.T) {
	svc, _ := newTestPuzzleService(t)

	p, err := svc.SetDaily(context.Background(), songFumes.ID, songFumes.Duration-model.ClipSeconds, 1)
	require.NoError(t, err)
	assert.Equal(t, songFumes.Duration-model.ClipSeconds, p.StartOffset)
}

func TestSetDaily_SameDayConflict(t *testing.T) {
	svc, _ := newTestPuzzleService(t)
	ctx := context.Background()

	_, err := svc.SetDaily(ctx, songFumes.ID, 0, 5)
	require.NoError(t, err)

	_, err = svc.SetDaily(ctx, songFlorist.ID, 0, 5)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
}

func TestCreateCustom(t *testing.T) {
	svc, _ := newTestPuzzleService(t)
	ctx := context.Background()

	p, err := svc.CreateCustom(ctx, "user-1", songSingle.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, model.PuzzleCustom, p.Kind)
	assert.Equal(t, "user-1", p.CreatorID)
	assert.Equal(t, "Standalone", p.Song.Name)

	got, err := svc.GetCustomPuzzle(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestCreateCustom_Errors(t *testing.T) {
	svc, _ := newTestPuzzleService(t)
	ctx := context.Background()

	_, err := svc.CreateCustom(ctx, "", songSingle.ID, 0)
	assert.True(t, errors.Is(err, apperror.ErrForbidden), "guests cannot create puzzles, got %v", err)

	_, err = svc.CreateCustom(ctx, "user-1", songSingle.ID, songSingle.Duration)
	assert.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)
}

func TestCreateCustom_ManyPerCreator(t *testing.T) {
	svc, _ := newTestPuzzleService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateCustom(ctx, "user-1", songFumes.ID, i)
		require.NoError(t, err)
	}

	mine, err := svc.ListMine(ctx, "user-1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	page, err := svc.ListMine(ctx, "user-1", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	others, err := svc.ListMine(ctx, "user-2", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestGetCustomPuzzle_RejectsDailyID(t *testing.T) {
	svc, _ := newTestPuzzleService(t)
	ctx := context.Background()

	daily, err := svc.SetDaily(ctx, songFumes.ID, 0, 1)
	require.NoError(t, err)

	_, err = svc.GetCustomPuzzle(ctx, daily.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)

	_, err = svc.GetCustomPuzzle(ctx, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)

	_, err = svc.GetCustomPuzzle(ctx, " ")
	assert.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)
}

func TestDeleteCustom(t *testing.T) {
	svc, _ := newTestPuzzleService(t)
	ctx := context.Background()

	p, err := svc.CreateCustom(ctx, "owner", songFumes.ID, 0)
	require.NoError(t, err)

	err = svc.DeleteCustom(ctx, "someone-else", p.ID)
	assert.True(t, errors.Is(err, apperror.ErrForbidden), "got %v", err)

	require.NoError(t, svc.DeleteCustom(ctx, "owner", p.ID))

	_, err = svc.GetCustomPuzzle(ctx, p.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	err = svc.DeleteCustom(ctx, "owner", p.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDeleteCustom_CannotDeleteDaily(t *testing.T) {
	svc, _ := newTestPuzzleService(t)
	ctx := context.Background()

	daily, err := svc.SetDaily(ctx, songFumes.ID, 0, 1)
	require.NoError(t, err)

	err = svc.DeleteCustom(ctx, "", daily.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
}
