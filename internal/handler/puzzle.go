package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/auth"
	"github.com/sakif/heardle/internal/game"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/service"
)

// RoundOptions are the game settings the round endpoints report to clients.
type RoundOptions struct {
	ResetHourUTC    int
	RefetchInterval time.Duration
}

// PuzzleHandler serves the daily and custom puzzles and the rounds played
// on them.
//
// Every round endpoint exists twice, once under /api/puzzles/daily and once
// under /api/puzzles/custom/{id}. The handler methods take a puzzleResolver
// so the two route trees share one implementation:
//
//	r.Get("/daily/round", h.HandleRound(h.Daily))
//	r.Get("/custom/{id}/round", h.HandleRound(h.Custom))
type PuzzleHandler struct {
	puzzles *service.PuzzleService
	rounds  *service.RoundService
	opts    RoundOptions
	logger  *slog.Logger
	now     func() time.Time
}

func NewPuzzleHandler(puzzles *service.PuzzleService, rounds *service.RoundService, opts RoundOptions, logger *slog.Logger) *PuzzleHandler {
	return &PuzzleHandler{
		puzzles: puzzles,
		rounds:  rounds,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// puzzleResolver picks the puzzle a request is about.
type puzzleResolver func(r *http.Request) (*model.Puzzle, error)

// Daily resolves the current daily puzzle.
func (h *PuzzleHandler) Daily(r *http.Request) (*model.Puzzle, error) {
	return h.puzzles.GetDailyPuzzle(r.Context(), h.now())
}

// Custom resolves the custom puzzle named by the {id} URL parameter.
func (h *PuzzleHandler) Custom(r *http.Request) (*model.Puzzle, error) {
	return h.puzzles.GetCustomPuzzle(r.Context(), chi.URLParam(r, "id"))
}

// puzzleResponse is a puzzle as a player sees it. The target song stays
// hidden behind Answer until the player's round is over; before that only
// the audio link and clip offset are exposed.
type puzzleResponse struct {
	ID          string           `json:"id"`
	Kind        model.PuzzleKind `json:"kind"`
	Day         int              `json:"day,omitempty"`
	Link        string           `json:"link"`
	StartOffset int              `json:"startOffset"`
	ClipSeconds int              `json:"clipSeconds"`
	Answer      *model.Song      `json:"answer,omitempty"`
}

type roundResponse struct {
	Puzzle                 puzzleResponse  `json:"puzzle"`
	Guesses                []model.Guess   `json:"guesses"`
	Status                 game.Status     `json:"status"`
	Playback               game.Window     `json:"playback"`
	Countdown              *game.Countdown `json:"countdown,omitempty"`
	RefetchIntervalSeconds int             `json:"refetchIntervalSeconds"`
}

type guessRequest struct {
	SongID string `json:"songId"`
}

type guessResponse struct {
	Guess model.Guess   `json:"guess"`
	Round roundResponse `json:"round"`
}

type playbackResponse struct {
	game.Window
	Elapsed     float64 `json:"elapsed"`
	ShouldPause bool    `json:"shouldPause"`
}

// HandlePuzzle returns the puzzle with its answer hidden unless the
// player's round on it is finished.
//
// HTTP: GET /api/puzzles/daily, GET /api/puzzles/custom/{id}
func (h *PuzzleHandler) HandlePuzzle(resolve puzzleResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := h.loadRound(w, r, resolve)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, newPuzzleResponse(view))
	}
}

// HandleRound returns the player's guesses, status and playback window.
//
// HTTP: GET /api/puzzles/daily/round, GET /api/puzzles/custom/{id}/round
func (h *PuzzleHandler) HandleRound(resolve puzzleResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := h.loadRound(w, r, resolve)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, h.newRoundResponse(view))
	}
}

// HandleGuess submits one guess.
//
// HTTP: POST /api/puzzles/daily/guesses, POST /api/puzzles/custom/{id}/guesses
// REQUEST BODY: {"songId": "..."}
// RESPONSE: 201 with the new guess and the updated round.
func (h *PuzzleHandler) HandleGuess(resolve puzzleResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, ok := auth.PlayerFromContext(r.Context())
		if !ok {
			writeUnauthorized(w)
			return
		}

		var req guessRequest
		if err := decodeJSON(r, w, &req); err != nil {
			writeError(w, err)
			return
		}

		puzzle, err := resolve(r)
		if err != nil {
			writeError(w, err)
			return
		}

		guess, view, err := h.rounds.SubmitGuess(r.Context(), player, puzzle, req.SongID)
		if err != nil {
			h.logger.Debug("guess rejected",
				slog.String("puzzleID", puzzle.ID),
				slog.String("songID", req.SongID),
				slog.String("error", err.Error()),
			)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, guessResponse{
			Guess: guess,
			Round: h.newRoundResponse(view),
		})
	}
}

// HandlePlayback tells the audio surface whether playback at ?elapsed=
// seconds past the clip start must pause. Without elapsed it just returns
// the window.
//
// HTTP: GET /api/puzzles/daily/playback?elapsed=2.4
func (h *PuzzleHandler) HandlePlayback(resolve puzzleResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var elapsed float64
		if raw := r.URL.Query().Get("elapsed"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				writeError(w, apperror.ValidationFailed("elapsed", "elapsed must be a number of seconds"))
				return
			}
			elapsed = v
		}

		view, ok := h.loadRound(w, r, resolve)
		if !ok {
			return
		}

		terminal := view.Terminal()
		writeJSON(w, http.StatusOK, playbackResponse{
			Window:      view.Playback,
			Elapsed:     elapsed,
			ShouldPause: game.ShouldPause(elapsed, len(view.Guesses), terminal),
		})
	}
}

// loadRound resolves the puzzle and loads the caller's round on it,
// writing the error response itself when either step fails.
func (h *PuzzleHandler) loadRound(w http.ResponseWriter, r *http.Request, resolve puzzleResolver) (*service.RoundView, bool) {
	player, ok := auth.PlayerFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return nil, false
	}

	puzzle, err := resolve(r)
	if err != nil {
		writeError(w, err)
		return nil, false
	}

	view, err := h.rounds.LoadRound(r.Context(), player, puzzle)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return view, true
}

func (h *PuzzleHandler) newRoundResponse(view *service.RoundView) roundResponse {
	guesses := view.Guesses
	if guesses == nil {
		guesses = []model.Guess{}
	}

	resp := roundResponse{
		Puzzle:                 newPuzzleResponse(view),
		Guesses:                guesses,
		Status:                 view.Status,
		Playback:               view.Playback,
		RefetchIntervalSeconds: int(h.opts.RefetchInterval / time.Second),
	}
	if view.Puzzle.Kind == model.PuzzleDaily {
		cd := game.TimeUntilNextReset(h.now(), h.opts.ResetHourUTC)
		resp.Countdown = &cd
	}
	return resp
}

func newPuzzleResponse(view *service.RoundView) puzzleResponse {
	p := view.Puzzle
	resp := puzzleResponse{
		ID:          p.ID,
		Kind:        p.Kind,
		Day:         p.Day,
		Link:        p.Song.Link,
		StartOffset: p.StartOffset,
		ClipSeconds: model.ClipSeconds,
	}
	if view.Terminal() {
		answer := p.Song
		resp.Answer = &answer
	}
	return resp
}

// --- Custom puzzle management ---

type createCustomRequest struct {
	SongID      string `json:"songId"`
	StartOffset int    `json:"startOffset"`
}

// customPuzzleResponse is what a creator sees of their own puzzle; the
// answer is theirs already.
type customPuzzleResponse struct {
	ID          string     `json:"id"`
	SharePath   string     `json:"sharePath"`
	Song        model.Song `json:"song"`
	StartOffset int        `json:"startOffset"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func newCustomPuzzleResponse(p *model.Puzzle) customPuzzleResponse {
	return customPuzzleResponse{
		ID:          p.ID,
		SharePath:   "/play/" + p.ID,
		Song:        p.Song,
		StartOffset: p.StartOffset,
		CreatedAt:   p.CreatedAt,
	}
}

// HandleCreateCustom creates a custom puzzle owned by the caller.
//
// HTTP: POST /api/puzzles/custom
// Auth: Required
// REQUEST BODY: {"songId": "...", "startOffset": 42}
func (h *PuzzleHandler) HandleCreateCustom(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req createCustomRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.puzzles.CreateCustom(r.Context(), userID, req.SongID, req.StartOffset)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/puzzles/custom/"+p.ID)
	writeJSON(w, http.StatusCreated, newCustomPuzzleResponse(p))
}

// HandleListMine lists the caller's custom puzzles, newest first.
//
// HTTP: GET /api/puzzles/custom/mine?limit=20&offset=0
// Auth: Required
func (h *PuzzleHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	puzzles, err := h.puzzles.ListMine(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]customPuzzleResponse, 0, len(puzzles))
	for i := range puzzles {
		resp = append(resp, newCustomPuzzleResponse(&puzzles[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDeleteCustom deletes one of the caller's custom puzzles.
//
// HTTP: DELETE /api/puzzles/custom/{id}
// Auth: Required, and the caller must be the creator (403 otherwise)
func (h *PuzzleHandler) HandleDeleteCustom(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.puzzles.DeleteCustom(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(key, key+" must be an integer")
	}
	return n, nil
}
