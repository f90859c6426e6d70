package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// Hand-written fakes keep each test readable: you can see exactly what the
// storage does. The err fields simulate database failures.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSongRepo struct {
	songs  map[string]model.Song
	nextID int
	err    error
}

func newFakeSongRepo(songs ...model.Song) *fakeSongRepo {
	f := &fakeSongRepo{songs: make(map[string]model.Song)}
	for _, s := range songs {
		f.songs[s.ID] = s
	}
	return f
}

func (f *fakeSongRepo) CreateSong(_ context.Context, song *model.Song) error {
	if f.err != nil {
		return f.err
	}
	for _, s := range f.songs {
		if s.Name == song.Name {
			return apperror.Conflict("song", song.Name)
		}
	}
	if song.ID == "" {
		f.nextID++
		song.ID = fmt.Sprintf("song-%d", f.nextID)
	}
	song.CreatedAt = time.Now()
	f.songs[song.ID] = *song
	return nil
}

func (f *fakeSongRepo) GetSongByID(_ context.Context, id string) (*model.Song, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.songs[id]
	if !ok {
		return nil, apperror.NotFound("song", id)
	}
	return &s, nil
}

func (f *fakeSongRepo) ListSongs(_ context.Context) ([]model.Song, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Song, 0, len(f.songs))
	for _, s := range f.songs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

type fakePuzzleRepo struct {
	puzzles map[string]*model.Puzzle
	current string
	nextID  int
	err     error
}

func newFakePuzzleRepo() *fakePuzzleRepo {
	return &fakePuzzleRepo{puzzles: make(map[string]*model.Puzzle)}
}

func (f *fakePuzzleRepo) GetCurrentDaily(_ context.Context) (*model.Puzzle, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.puzzles[f.current]
	if !ok {
		return nil, apperror.NotFound("daily puzzle", "current")
	}
	cp := *p
	return &cp, nil
}

func (f *fakePuzzleRepo) SetDaily(_ context.Context, p *model.Puzzle) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.puzzles {
		if existing.Kind == model.PuzzleDaily && existing.Day == p.Day {
			return apperror.Conflict("daily puzzle", fmt.Sprint(p.Day))
		}
	}
	f.nextID++
	p.ID = fmt.Sprintf("daily-%d", f.nextID)
	p.Kind = model.PuzzleDaily
	p.CreatedAt = time.Now()
	cp := *p
	f.puzzles[p.ID] = &cp
	f.current = p.ID
	return nil
}

func (f *fakePuzzleRepo) CreateCustom(_ context.Context, p *model.Puzzle) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	p.ID = fmt.Sprintf("custom-%d", f.nextID)
	p.Kind = model.PuzzleCustom
	p.CreatedAt = time.Now()
	cp := *p
	f.puzzles[p.ID] = &cp
	return nil
}

func (f *fakePuzzleRepo) GetPuzzle(_ context.Context, id string) (*model.Puzzle, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.puzzles[id]
	if !ok {
		return nil, apperror.NotFound("puzzle", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakePuzzleRepo) ListCustomByCreator(_ context.Context, creatorID string, opts repository.ListOptions) ([]model.Puzzle, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Puzzle{}
	for _, p := range f.puzzles {
		if p.Kind == model.PuzzleCustom && p.CreatorID == creatorID {
			out = append(out, *p)
		}
	}
	if opts.Offset >= len(out) {
		return []model.Puzzle{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakePuzzleRepo) DeleteCustom(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	p, ok := f.puzzles[id]
	if !ok || p.Kind != model.PuzzleCustom {
		return apperror.NotFound("custom puzzle", id)
	}
	delete(f.puzzles, id)
	return nil
}

// fakeRoundRepo is a minimal round store whose load and append can be
// made to fail independently.
type fakeRoundRepo struct {
	mu        sync.Mutex
	rounds    map[string][]model.Guess
	loadErr   error
	appendErr error
	appends   int
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{rounds: make(map[string][]model.Guess)}
}

func (f *fakeRoundRepo) LoadRound(_ context.Context, playerID, puzzleID string) ([]model.Guess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	g := f.rounds[playerID+"|"+puzzleID]
	out := make([]model.Guess, len(g))
	copy(out, g)
	return out, nil
}

func (f *fakeRoundRepo) AppendGuess(_ context.Context, g model.Guess) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	key := g.PlayerID + "|" + g.PuzzleID
	if g.Seq != len(f.rounds[key])+1 {
		return apperror.Conflict("guess", fmt.Sprintf("%s#%d", g.PuzzleID, g.Seq))
	}
	f.rounds[key] = append(f.rounds[key], g)
	f.appends++
	return nil
}

type statsCall struct {
	userID string
	won    bool
}

type fakeStatsRepo struct {
	mu    sync.Mutex
	stats map[string]*model.Statistics
	calls []statsCall
	err   error
	// ctxErr is ctx.Err() as seen by the last RecordOutcome call.
	ctxErr error
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: make(map[string]*model.Statistics)}
}

func (f *fakeStatsRepo) RecordOutcome(ctx context.Context, userID string, won bool) (*model.Statistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	f.calls = append(f.calls, statsCall{userID, won})
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.stats[userID]
	if !ok {
		s = &model.Statistics{UserID: userID}
		f.stats[userID] = s
	}
	s.GamesPlayed++
	if won {
		s.GamesWon++
		s.CurrentStreak++
		s.MaxStreak = max(s.MaxStreak, s.CurrentStreak)
	} else {
		s.CurrentStreak = 0
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStatsRepo) GetStats(_ context.Context, userID string) (*model.Statistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.stats[userID]
	if !ok {
		return nil, apperror.NotFound("statistics", userID)
	}
	cp := *s
	return &cp, nil
}

type fakeUserRepo struct {
	users     map[string]*model.User
	byDiscord map[string]*model.User
	nextID    int
	upsertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[string]*model.User),
		byDiscord: make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.byDiscord[user.DiscordID]; ok {
		existing.Name = user.Name
		existing.AvatarURL = user.AvatarURL
		existing.UpdatedAt = time.Now()
		*user = *existing
		return nil
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	f.byDiscord[user.DiscordID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

// =========================================================================
// FIXTURES
// =========================================================================

var (
	songFumes   = model.Song{ID: "s-fumes", Name: "Fumes", Album: "vertigo", Link: "https://x/fumes.mp3", Duration: 180}
	songFlorist = model.Song{ID: "s-florist", Name: "Florist", Album: "vertigo", Link: "https://x/florist.mp3", Duration: 200}
	songSingle  = model.Song{ID: "s-single", Name: "Standalone", Link: "https://x/single.mp3", Duration: 150}
)

// wrongSongs are six songs that never match songFumes by name or album.
func wrongSongs() []model.Song {
	out := make([]model.Song, 6)
	for i := range out {
		out[i] = model.Song{
			ID:       fmt.Sprintf("s-wrong-%d", i),
			Name:     fmt.Sprintf("Wrong %d", i),
			Album:    "other",
			Link:     "https://x/wrong.mp3",
			Duration: 120,
		}
	}
	return out
}
