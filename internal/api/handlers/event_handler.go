package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/isdelr/ender-todo/internal/auth"
	"github.com/isdelr/ender-todo/internal/services"
	"github.com/rs/zerolog/log"
)

// EventHandler handles HTTP requests related to account activity.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent handles the request to get the signed-in user's recent activity.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.service.GetRecentEvents(r.Context(), auth.SessionFromContext(r.Context()), limit)
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "Authentication required"})
			return
		}
		log.Error().Err(err).Msg("Failed to retrieve events")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": "Failed to retrieve events"})
		return
	}

	writeJSON(w, http.StatusOK, events)
}
