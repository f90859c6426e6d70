package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/heardle/internal/game"
)

// CountdownHandler reports the time left until the next daily puzzle.
type CountdownHandler struct {
	resetHour int
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewCountdownHandler(resetHourUTC int, interval time.Duration, logger *slog.Logger) *CountdownHandler {
	return &CountdownHandler{
		resetHour: resetHourUTC,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

type countdownResponse struct {
	game.Countdown
	NextReset time.Time `json:"nextReset"`
}

func (h *CountdownHandler) current() countdownResponse {
	now := h.now()
	return countdownResponse{
		Countdown: game.TimeUntilNextReset(now, h.resetHour),
		NextReset: game.NextReset(now, h.resetHour),
	}
}

// HandleGet returns one countdown snapshot.
//
// HTTP: GET /api/countdown
func (h *CountdownHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.current())
}

// HandleStream pushes a countdown event every tick as Server-Sent Events
// until the client goes away.
//
// HTTP: GET /api/countdown/stream
//
//	event: countdown
//	data: {"hours":5,"minutes":12,"seconds":3,"nextReset":"..."}
func (h *CountdownHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		h.logger.Error("countdown stream: flushing unsupported", slog.String("error", err.Error()))
		return
	}

	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	for cd := range game.WatchCountdown(r.Context(), h.now, h.interval, h.resetHour) {
		data, err := json.Marshal(countdownResponse{
			Countdown: cd,
			NextReset: game.NextReset(h.now(), h.resetHour),
		})
		if err != nil {
			h.logger.Error("countdown stream: encoding", slog.String("error", err.Error()))
			return
		}
		if _, err := fmt.Fprintf(w, "event: countdown\ndata: %s\n\n", data); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
