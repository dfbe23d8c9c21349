package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/ender-todo/internal/auth"
	"github.com/isdelr/ender-todo/internal/services"
	"github.com/isdelr/ender-todo/internal/web"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// todoID parses the {id} URL parameter. Anything that is not a positive
// integer can never name a todo.
func todoID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// renderError maps a service error onto an HTML response.
func renderError(rd *web.Renderer, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, services.ErrNotFound):
		rd.Render(w, r, http.StatusNotFound, "404.html", "Not Found", nil)
	default:
		session := auth.SessionFromContext(r.Context())
		event := log.Error().Err(err).Str("path", r.URL.Path)
		if session != nil {
			event = event.Int64("user_id", session.UserID)
		}
		event.Msg("Request failed")
		rd.Render(w, r, http.StatusInternalServerError, "500.html", "Error", nil)
	}
}
