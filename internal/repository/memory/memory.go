// Package memory keeps guest rounds in process memory.
//
// Guests have no account, so their progress only needs to survive as long as
// the server does. The store enforces the same uniqueness the SQLite schema
// does (one guess per seq, one guess per song) so the round service behaves
// identically against either backend.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

var _ repository.RoundRepository = (*RoundStore)(nil)

type roundKey struct {
	playerID string
	puzzleID string
}

type entry struct {
	guesses []model.Guess
	touched time.Time
}

// Config controls how long idle guest rounds are kept.
type Config struct {
	// TTL is how long a round may go untouched before the janitor drops it.
	TTL time.Duration
	// SweepInterval is how often the janitor runs.
	SweepInterval time.Duration
}

// DefaultConfig keeps a guest round for two days, long enough to outlive
// the daily reset that makes it irrelevant.
func DefaultConfig() Config {
	return Config{
		TTL:           48 * time.Hour,
		SweepInterval: 10 * time.Minute,
	}
}

// RoundStore is a mutex-guarded map of (player, puzzle) to guesses.
type RoundStore struct {
	mu     sync.RWMutex
	rounds map[roundKey]*entry

	config Config
	logger *slog.Logger
	now    func() time.Time

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewRoundStore creates an empty store. Call Start to run the janitor.
func NewRoundStore(cfg Config, logger *slog.Logger) *RoundStore {
	return &RoundStore{
		rounds: make(map[roundKey]*entry),
		config: cfg,
		logger: logger,
		now:    time.Now,
		done:   make(chan struct{}),
	}
}

// LoadRound returns a copy of the guest's guesses for a puzzle.
func (s *RoundStore) LoadRound(_ context.Context, playerID, puzzleID string) ([]model.Guess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.rounds[roundKey{playerID, puzzleID}]
	if !ok {
		return []model.Guess{}, nil
	}
	out := make([]model.Guess, len(e.guesses))
	copy(out, e.guesses)
	return out, nil
}

// AppendGuess stores a guess if it is the next in sequence and its song has
// not been guessed yet in this round.
func (s *RoundStore) AppendGuess(_ context.Context, g model.Guess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := roundKey{g.PlayerID, g.PuzzleID}
	e, ok := s.rounds[key]
	var prior []model.Guess
	if ok {
		prior = e.guesses
	}

	if g.Seq != len(prior)+1 {
		return apperror.Conflict("guess", fmt.Sprintf("%s#%d", g.PuzzleID, g.Seq))
	}
	for _, prev := range prior {
		if prev.Name == g.Name {
			return apperror.Conflict("guess", fmt.Sprintf("%s#%d", g.PuzzleID, g.Seq))
		}
	}

	if !ok {
		e = &entry{}
		s.rounds[key] = e
	}
	e.guesses = append(e.guesses, g)
	e.touched = s.now()
	return nil
}

// Len returns the number of rounds held.
func (s *RoundStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rounds)
}

// Start launches the janitor goroutine. Calling it more than once is a no-op.
func (s *RoundStore) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("starting guest round janitor",
			slog.Duration("ttl", s.config.TTL),
			slog.Duration("interval", s.config.SweepInterval),
		)
		s.wg.Add(1)
		go s.janitor()
	})
}

// Stop shuts the janitor down and waits for it to exit.
func (s *RoundStore) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("shutting down guest round janitor")
		close(s.done)
		s.wg.Wait()
	})
}

func (s *RoundStore) janitor() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if n := s.Prune(); n > 0 {
				s.logger.Debug("pruned idle guest rounds", slog.Int("count", n))
			}
		}
	}
}

// Prune drops every round untouched for longer than the TTL and returns how
// many were removed.
func (s *RoundStore) Prune() int {
	cutoff := s.now().Add(-s.config.TTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.rounds {
		if e.touched.Before(cutoff) {
			delete(s.rounds, key)
			removed++
		}
	}
	return removed
}
