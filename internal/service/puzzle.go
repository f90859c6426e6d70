package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/game"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// provisionSlack is how early before a reset the provisioning job may move
// the daily pointer without the pointer counting as stale for that day.
const provisionSlack = time.Hour

// PuzzleService resolves which puzzle a request is about and manages
// custom puzzles and daily provisioning.
type PuzzleService struct {
	puzzles   repository.PuzzleRepository
	songs     repository.SongRepository
	resetHour int
	logger    *slog.Logger
}

func NewPuzzleService(puzzles repository.PuzzleRepository, songs repository.SongRepository, resetHourUTC int, logger *slog.Logger) *PuzzleService {
	return &PuzzleService{
		puzzles:   puzzles,
		songs:     songs,
		resetHour: resetHourUTC,
		logger:    logger,
	}
}

// GetDailyPuzzle returns the puzzle the "current" pointer refers to.
//
// The pointer is moved only by provisioning (SetDaily); the server never
// rolls it over by itself. now is used to notice a pointer that was not
// moved around the last reset, which means the provisioning job missed a day.
// A pointer moved up to provisionSlack before that reset still counts.
func (s *PuzzleService) GetDailyPuzzle(ctx context.Context, now time.Time) (*model.Puzzle, error) {
	p, err := s.puzzles.GetCurrentDaily(ctx)
	if err != nil {
		return nil, err
	}

	lastReset := game.NextReset(now, s.resetHour).Add(-24 * time.Hour)
	if !now.IsZero() && p.CreatedAt.Before(lastReset.Add(-provisionSlack)) {
		s.logger.Warn("daily puzzle was not rotated at the last reset",
			slog.String("id", p.ID),
			slog.Int("day", p.Day),
			slog.Time("lastReset", lastReset),
		)
	}
	return p, nil
}

// GetCustomPuzzle returns a custom puzzle by share id. Daily puzzle ids are
// not accepted here.
func (s *PuzzleService) GetCustomPuzzle(ctx context.Context, shareID string) (*model.Puzzle, error) {
	shareID = strings.TrimSpace(shareID)
	if shareID == "" {
		return nil, apperror.ValidationFailed("id", "puzzle ID is required")
	}

	p, err := s.puzzles.GetPuzzle(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if p.Kind != model.PuzzleCustom {
		return nil, apperror.NotFound("custom puzzle", shareID)
	}
	return p, nil
}

// CreateCustom stores a new puzzle for creatorID built on songID, starting
// the clip startOffset seconds into the song.
func (s *PuzzleService) CreateCustom(ctx context.Context, creatorID, songID string, startOffset int) (*model.Puzzle, error) {
	if creatorID == "" {
		return nil, apperror.Forbidden("sign in to create a puzzle")
	}

	song, err := s.resolveClip(ctx, songID, startOffset)
	if err != nil {
		return nil, err
	}

	p := &model.Puzzle{
		Song:        *song,
		StartOffset: startOffset,
		CreatorID:   creatorID,
	}
	if err := s.puzzles.CreateCustom(ctx, p); err != nil {
		s.logger.Error("failed to create custom puzzle",
			slog.String("creatorID", creatorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating custom puzzle: %w", err)
	}

	s.logger.Info("custom puzzle created",
		slog.String("id", p.ID),
		slog.String("creatorID", creatorID),
	)
	return p, nil
}

// ListMine lists a creator's custom puzzles, newest first.
func (s *PuzzleService) ListMine(ctx context.Context, creatorID string, limit, offset int) ([]model.Puzzle, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	puzzles, err := s.puzzles.ListCustomByCreator(ctx, creatorID, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list custom puzzles", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing custom puzzles: %w", err)
	}
	return puzzles, nil
}

// DeleteCustom removes a custom puzzle. Only its creator may delete it.
func (s *PuzzleService) DeleteCustom(ctx context.Context, userID, id string) error {
	p, err := s.GetCustomPuzzle(ctx, id)
	if err != nil {
		return err
	}
	if p.CreatorID != userID {
		return apperror.Forbidden("only the creator can delete this puzzle")
	}

	if err := s.puzzles.DeleteCustom(ctx, p.ID); err != nil {
		return err
	}

	s.logger.Info("custom puzzle deleted",
		slog.String("id", p.ID),
		slog.String("creatorID", userID),
	)
	return nil
}

// SetDaily provisions the puzzle for day and makes it current. Provisioning
// the same day twice fails with apperror.ErrConflict.
func (s *PuzzleService) SetDaily(ctx context.Context, songID string, startOffset, day int) (*model.Puzzle, error) {
	if day < 1 {
		return nil, apperror.ValidationFailed("day", "day must be 1 or greater")
	}

	song, err := s.resolveClip(ctx, songID, startOffset)
	if err != nil {
		return nil, err
	}

	p := &model.Puzzle{
		Song:        *song,
		StartOffset: startOffset,
		Day:         day,
	}
	if err := s.puzzles.SetDaily(ctx, p); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to set daily puzzle",
			slog.Int("day", day),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("setting daily puzzle: %w", err)
	}

	s.logger.Info("daily puzzle set",
		slog.String("id", p.ID),
		slog.Int("day", day),
		slog.String("song", song.Name),
	)
	return p, nil
}

// resolveClip loads the song and checks that a full clip fits after
// startOffset.
func (s *PuzzleService) resolveClip(ctx context.Context, songID string, startOffset int) (*model.Song, error) {
	songID = strings.TrimSpace(songID)
	if songID == "" {
		return nil, apperror.ValidationFailed("songId", "song ID is required")
	}

	song, err := s.songs.GetSongByID(ctx, songID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("songId", "unknown song "+songID)
		}
		return nil, err
	}

	maxStart := song.Duration - model.ClipSeconds
	if startOffset < 0 || startOffset > maxStart {
		return nil, apperror.ValidationFailed("startOffset",
			fmt.Sprintf("startOffset must be between 0 and %d", max(maxStart, 0)))
	}
	return song, nil
}
