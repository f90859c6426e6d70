package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/game"
	"github.com/sakif/heardle/internal/metrics"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

// RoundView is a player's round on one puzzle as the API presents it.
type RoundView struct {
	Puzzle   *model.Puzzle
	Guesses  []model.Guess
	Status   game.Status
	Playback game.Window
}

// Terminal reports whether the round is won or lost.
func (v *RoundView) Terminal() bool {
	return v.Status != game.StatusInProgress
}

// RoundService plays rounds.
//
// Signed-in players' guesses go to the remote store and guests' to the local
// one. Nothing else differs: the same game.Round rules apply to both.
type RoundService struct {
	songs   repository.SongRepository
	remote  repository.RoundRepository
	local   repository.RoundRepository
	stats   repository.StatsRepository
	metrics *metrics.Metrics
	logger  *slog.Logger

	locks *keyedMutex
	now   func() time.Time
}

// NewRoundService wires a RoundService. m may be nil.
func NewRoundService(
	songs repository.SongRepository,
	remote repository.RoundRepository,
	local repository.RoundRepository,
	stats repository.StatsRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *RoundService {
	return &RoundService{
		songs:   songs,
		remote:  remote,
		local:   local,
		stats:   stats,
		metrics: m,
		logger:  logger,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
}

func (s *RoundService) storeFor(p model.Player) repository.RoundRepository {
	if p.Guest {
		return s.local
	}
	return s.remote
}

// LoadRound returns the player's current state on puzzle. A player who has
// not guessed yet gets an empty, in-progress round.
func (s *RoundService) LoadRound(ctx context.Context, player model.Player, puzzle *model.Puzzle) (*RoundView, error) {
	round, err := s.loadRound(ctx, player, puzzle)
	if err != nil {
		return nil, err
	}
	return newRoundView(puzzle, round), nil
}

// SubmitGuess evaluates songID against the puzzle and records the guess.
//
// Submissions for the same (player, puzzle) are serialized, so two requests
// racing on one round cannot both pass the ceiling and duplicate checks.
// Once the round becomes terminal the result is counted and, for a
// signed-in player's daily round, folded into their statistics. A stats
// failure is logged and does not fail the guess.
func (s *RoundService) SubmitGuess(ctx context.Context, player model.Player, puzzle *model.Puzzle, songID string) (model.Guess, *RoundView, error) {
	songID = strings.TrimSpace(songID)
	if songID == "" {
		return model.Guess{}, nil, apperror.ValidationFailed("songId", "song ID is required")
	}

	candidate, err := s.songs.GetSongByID(ctx, songID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.Guess{}, nil, apperror.ValidationFailed("songId", "unknown song "+songID)
		}
		return model.Guess{}, nil, apperror.Persistence("load song", err)
	}

	unlock := s.locks.Lock(player.ID + "|" + puzzle.ID)
	defer unlock()

	round, err := s.loadRound(ctx, player, puzzle)
	if err != nil {
		return model.Guess{}, nil, err
	}

	guess, err := round.SubmitGuess(*candidate)
	if err != nil {
		return model.Guess{}, nil, err
	}
	guess.ID = xid.New().String()
	guess.PlayerID = player.ID
	guess.CreatedAt = s.now()

	if err := s.storeFor(player).AppendGuess(ctx, guess); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return model.Guess{}, nil, err
		}
		s.logger.Error("failed to save guess",
			slog.String("puzzleID", puzzle.ID),
			slog.Int("seq", guess.Seq),
			slog.String("error", err.Error()),
		)
		return model.Guess{}, nil, apperror.Persistence("save guess", err)
	}

	s.metrics.GuessSubmitted(guess.Outcome, player.Guest)

	if round.IsTerminal() {
		s.finish(ctx, player, puzzle, round.Status())
	}

	return guess, newRoundView(puzzle, round), nil
}

func (s *RoundService) loadRound(ctx context.Context, player model.Player, puzzle *model.Puzzle) (*game.Round, error) {
	stored, err := s.storeFor(player).LoadRound(ctx, player.ID, puzzle.ID)
	if err != nil {
		s.logger.Error("failed to load round",
			slog.String("puzzleID", puzzle.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Persistence("load round", err)
	}
	return game.NewRound(puzzle.ID, puzzle.Song, stored), nil
}

// finish runs once per round, on the guess that ended it.
func (s *RoundService) finish(ctx context.Context, player model.Player, puzzle *model.Puzzle, status game.Status) {
	s.metrics.RoundFinished(puzzle.Kind, string(status))

	s.logger.Info("round finished",
		slog.String("puzzleID", puzzle.ID),
		slog.String("kind", string(puzzle.Kind)),
		slog.String("status", string(status)),
		slog.Bool("guest", player.Guest),
	)

	if player.Guest || puzzle.Kind != model.PuzzleDaily {
		return
	}

	// The guess is already stored; a client disconnect must not lose the stats.
	ctx = context.WithoutCancel(ctx)
	if _, err := s.stats.RecordOutcome(ctx, player.ID, status == game.StatusWon); err != nil {
		s.metrics.StatsFailed()
		s.logger.Error("failed to record statistics",
			slog.String("userID", player.ID),
			slog.String("puzzleID", puzzle.ID),
			slog.String("error", err.Error()),
		)
	}
}

func newRoundView(puzzle *model.Puzzle, round *game.Round) *RoundView {
	return &RoundView{
		Puzzle:   puzzle,
		Guesses:  round.Guesses(),
		Status:   round.Status(),
		Playback: game.PlaybackWindow(puzzle.StartOffset, round.Len(), round.IsTerminal()),
	}
}
