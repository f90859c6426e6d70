package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/heardle/internal/service"
)

// AdminHandler is the HTTP face of provisioning. Routes are mounted behind
// auth.RequireAdminKey; heardlectl does the same work directly against the
// database.
type AdminHandler struct {
	puzzles *service.PuzzleService
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewAdminHandler(puzzles *service.PuzzleService, catalog *service.CatalogService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{puzzles: puzzles, catalog: catalog, logger: logger}
}

type setDailyRequest struct {
	SongID      string `json:"songId"`
	StartOffset int    `json:"startOffset"`
	Day         int    `json:"day"`
}

// HandleSetDaily provisions a day's puzzle and makes it current.
// Provisioning a day twice answers 409.
//
// HTTP: PUT /api/admin/daily
// REQUEST BODY: {"songId": "...", "startOffset": 30, "day": 412}
func (h *AdminHandler) HandleSetDaily(w http.ResponseWriter, r *http.Request) {
	var req setDailyRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.puzzles.SetDaily(r.Context(), req.SongID, req.StartOffset, req.Day)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleGetDaily returns the current daily puzzle including its answer.
//
// HTTP: GET /api/admin/daily
func (h *AdminHandler) HandleGetDaily(w http.ResponseWriter, r *http.Request) {
	p, err := h.puzzles.GetDailyPuzzle(r.Context(), time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleAddSong adds a song to the catalog.
//
// HTTP: POST /api/admin/songs
func (h *AdminHandler) HandleAddSong(w http.ResponseWriter, r *http.Request) {
	var in service.SongInput
	if err := decodeJSON(r, w, &in); err != nil {
		writeError(w, err)
		return
	}

	song, err := h.catalog.AddSong(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, song)
}
