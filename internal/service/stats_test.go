package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
)

func TestStatsGet(t *testing.T) {
	repo := newFakeStatsRepo()
	svc := NewStatsService(repo, discardLogger())
	ctx := context.Background()

	got, err := svc.Get(ctx, "new-user")
	require.NoError(t, err)
	if diff := cmp.Diff(&model.Statistics{UserID: "new-user"}, got); diff != "" {
		t.Errorf("zero stats mismatch (-want +got):\n%s", diff)
	}

	for _, won := range []bool{true, true, false, true} {
		_, err := repo.RecordOutcome(ctx, "player", won)
		require.NoError(t, err)
	}

	got, err = svc.Get(ctx, "player")
	require.NoError(t, err)
	assert.Equal(t, 4, got.GamesPlayed)
	assert.Equal(t, 3, got.GamesWon)
	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 2, got.MaxStreak)
	assert.Equal(t, 75, got.WinPercentage())
}

func TestStatsGet_Errors(t *testing.T) {
	repo := newFakeStatsRepo()
	svc := NewStatsService(repo, discardLogger())

	_, err := svc.Get(context.Background(), "")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	cause := errors.New("db closed")
	repo.err = cause
	_, err = svc.Get(context.Background(), "player")
	assert.True(t, errors.Is(err, cause))
}
