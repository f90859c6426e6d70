package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

// StatsService reads player statistics. Writes happen in RoundService.
type StatsService struct {
	stats  repository.StatsRepository
	logger *slog.Logger
}

func NewStatsService(stats repository.StatsRepository, logger *slog.Logger) *StatsService {
	return &StatsService{stats: stats, logger: logger}
}

// Get returns userID's statistics. A user who has never finished a daily
// puzzle gets all zeros rather than ErrNotFound.
func (s *StatsService) Get(ctx context.Context, userID string) (*model.Statistics, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}

	st, err := s.stats.GetStats(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &model.Statistics{UserID: userID}, nil
		}
		s.logger.Error("failed to load statistics",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("loading statistics: %w", err)
	}
	return st, nil
}
