package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/ender-todo/internal/auth"
	"github.com/isdelr/ender-todo/internal/services"
	"github.com/isdelr/ender-todo/internal/web"
	"github.com/rs/zerolog/log"
)

// UserHandler handles sign-in and sign-out.
type UserHandler struct {
	service  services.UserServiceProvider
	events   services.EventServiceProvider
	sessions *auth.SessionManager
	render   *web.Renderer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, events services.EventServiceProvider, sessions *auth.SessionManager, render *web.Renderer) *UserHandler {
	return &UserHandler{service: service, events: events, sessions: sessions, render: render}
}

// Home renders the landing page.
func (h *UserHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "index.html", "Home", nil)
}

// LoginForm renders the login page, or sends signed-in users to their list.
func (h *UserHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if auth.SessionFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/todo/", http.StatusSeeOther)
		return
	}
	h.render.Render(w, r, http.StatusOK, "login.html", "Login", nil)
}

// Login handles user authentication and session creation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.service.AuthenticateUser(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, services.ErrAuthFailure) {
			log.Error().Err(err).Msg("Authentication lookup failed")
		} else {
			log.Warn().Str("username", username).Msg("Failed authentication attempt")
		}
		web.AddFlash(w, r, web.FlashDanger, "Invalid username or password")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	token, _, err := h.sessions.Issue(user)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to issue session token")
		renderError(h.render, w, r, err)
		return
	}
	h.sessions.SetCookie(w, token)

	if err := h.events.RecordLogin(r.Context(), user); err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to record login event")
	}

	log.Info().Int64("user_id", user.ID).Msg("User signed in")
	web.AddFlash(w, r, web.FlashSuccess, "Successful login")
	http.Redirect(w, r, "/todo/", http.StatusSeeOther)
}

// Logout destroys the session.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	web.AddFlash(w, r, web.FlashDanger, "You were logged out")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// NotFound renders the 404 page for unknown routes.
func (h *UserHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusNotFound, "404.html", "Not Found", nil)
}
