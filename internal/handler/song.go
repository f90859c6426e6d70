package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/heardle/internal/service"
)

// SongHandler serves the catalog players pick their guesses from.
type SongHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewSongHandler(catalog *service.CatalogService, logger *slog.Logger) *SongHandler {
	return &SongHandler{catalog: catalog, logger: logger}
}

// HandleList returns every song ordered by name, case-insensitively.
//
// HTTP: GET /api/songs
func (h *SongHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.ListSongs(r.Context())
	if err != nil {
		h.logger.Error("failed to list songs", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// HandleGet returns one song.
//
// HTTP: GET /api/songs/{id}
func (h *SongHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	song, err := h.catalog.GetSong(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}
