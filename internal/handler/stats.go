package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/heardle/internal/auth"
	"github.com/sakif/heardle/internal/model"
	"github.com/sakif/heardle/internal/service"
)

type StatsHandler struct {
	stats *service.StatsService
}

func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

type statsResponse struct {
	model.Statistics
	WinPercentage int `json:"winPercentage"`
}

// HandleMine returns the caller's statistics.
//
// HTTP: GET /api/stats
// Auth: Required
func (h *StatsHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	h.write(w, r, userID)
}

// HandleGet returns any player's statistics.
//
// HTTP: GET /api/stats/{userId}
func (h *StatsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, chi.URLParam(r, "userId"))
}

func (h *StatsHandler) write(w http.ResponseWriter, r *http.Request, userID string) {
	st, err := h.stats.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Statistics:    *st,
		WinPercentage: st.WinPercentage(),
	})
}
