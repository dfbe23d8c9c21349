package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/ender-todo/internal/api/handlers"
	"github.com/isdelr/ender-todo/internal/auth"
	"github.com/isdelr/ender-todo/internal/config"
	"github.com/isdelr/ender-todo/internal/services"
	"github.com/isdelr/ender-todo/internal/web"
	"github.com/isdelr/ender-todo/internal/websocket"
	"github.com/rs/zerolog/log"
)

// Services groups the business services the router dispatches to.
type Services struct {
	Users  services.UserServiceProvider
	Todos  services.TodoServiceProvider
	Events services.EventServiceProvider
}

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, sessions *auth.SessionManager, render *web.Renderer, hub *websocket.Hub, svc Services) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(sessions.Middleware())

	// Initialize handlers
	userHandler := handlers.NewUserHandler(svc.Users, svc.Events, sessions, render)
	todoHandler := handlers.NewTodoHandler(svc.Todos, render)
	eventHandler := handlers.NewEventHandler(svc.Events)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.Get("/", userHandler.Home)
	r.Get("/login", userHandler.LoginForm)
	r.Post("/login", userHandler.Login)
	r.Get("/logout", userHandler.Logout)
	r.Post("/show_completed", todoHandler.SetShowCompleted)
	r.Get("/activity", eventHandler.GetRecent)
	r.Get("/ws", wsHandler.Serve)

	r.Route("/todo", func(r chi.Router) {
		r.Get("/", todoHandler.List)
		r.Post("/", todoHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", todoHandler.Get)
			r.Post("/", todoHandler.Update)
			r.Delete("/", todoHandler.Delete)
			r.Get("/json", todoHandler.JSON)
		})
	})

	r.NotFound(userHandler.NotFound)

	return r
}

// requestLogger writes one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		}()
		next.ServeHTTP(ww, r)
	})
}
