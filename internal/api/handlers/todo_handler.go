package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/isdelr/ender-todo/internal/auth"
	"github.com/isdelr/ender-todo/internal/models"
	"github.com/isdelr/ender-todo/internal/preferences"
	"github.com/isdelr/ender-todo/internal/services"
	"github.com/isdelr/ender-todo/internal/web"
	"github.com/rs/zerolog/log"
)

// TodoHandler handles HTTP requests related to todos.
type TodoHandler struct {
	service services.TodoServiceProvider
	render  *web.Renderer
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(service services.TodoServiceProvider, render *web.Renderer) *TodoHandler {
	return &TodoHandler{service: service, render: render}
}

// todoListView is the data behind todos.html.
type todoListView struct {
	Page          models.Page[models.Todo]
	ShowCompleted bool
}

// todoResponse is the JSON shape of a single todo.
type todoResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Todo    *models.Todo `json:"todo"`
}

// List renders one page of the signed-in user's todos.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	perPage, _ := strconv.Atoi(query.Get("per_page"))

	showCompleted := preferences.ShowCompleted(r, session.UserID)
	if query.Has("show_completed") {
		showCompleted = preferences.ParseBool(query.Get("show_completed"))
	}

	todos, err := h.service.ListTodos(r.Context(), session, services.ListOptions{
		Page:          page,
		PerPage:       perPage,
		ShowCompleted: showCompleted,
	})
	if err != nil {
		renderError(h.render, w, r, err)
		return
	}

	h.render.Render(w, r, http.StatusOK, "todos.html", "Todo List", todoListView{Page: todos, ShowCompleted: showCompleted})
}

// Create handles the request to create a new todo.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	description := r.PostFormValue("description")

	todo, err := h.service.CreateTodo(r.Context(), session, description)
	switch {
	case err == nil:
		log.Info().Int64("user_id", session.UserID).Int64("todo_id", todo.ID).Msg("Todo created")
		web.AddFlash(w, r, web.FlashSuccess, "Todo was successfully created")
	case errors.Is(err, services.ErrValidation):
		message := "Todo description cannot be empty"
		if utf8.RuneCountInString(description) > services.MaxDescriptionLength {
			message = "Todo description is too long"
		}
		web.AddFlash(w, r, web.FlashDanger, message)
	default:
		renderError(h.render, w, r, err)
		return
	}
	http.Redirect(w, r, "/todo/", http.StatusSeeOther)
}

// Get renders a single todo.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, ok := todoID(r)
	if !ok {
		h.render.Render(w, r, http.StatusNotFound, "404.html", "Not Found", nil)
		return
	}

	todo, err := h.service.GetTodo(r.Context(), session, id)
	if err != nil {
		renderError(h.render, w, r, err)
		return
	}
	h.render.Render(w, r, http.StatusOK, "todo.html", "Todo", todo)
}

// Update sets the completed flag, or deletes the todo when the form carries
// the _method=DELETE override.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.PostFormValue("_method") == http.MethodDelete {
		h.Delete(w, r)
		return
	}

	completed := preferences.ParseBool(r.PostFormValue("completed"))
	message := "Todo has been marked as not completed."
	if completed {
		message = "Todo has been marked as completed."
	}
	h.apply(w, r, services.SetCompleted(completed), message)
}

// Delete handles the request to delete a todo.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, services.Delete(), "Todo was successfully deleted")
}

func (h *TodoHandler) apply(w http.ResponseWriter, r *http.Request, action services.TodoAction, message string) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, ok := todoID(r)
	if !ok {
		h.render.Render(w, r, http.StatusNotFound, "404.html", "Not Found", nil)
		return
	}

	if _, err := h.service.UpdateTodo(r.Context(), session, id, action); err != nil {
		renderError(h.render, w, r, err)
		return
	}

	log.Info().Int64("user_id", session.UserID).Int64("todo_id", id).Bool("delete", action.IsDelete()).Msg("Todo updated")
	web.AddFlash(w, r, web.FlashSuccess, message)
	http.Redirect(w, r, "/todo/", http.StatusSeeOther)
}

// JSON returns a single todo as {status, message, todo}.
func (h *TodoHandler) JSON(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		writeJSON(w, http.StatusUnauthorized, todoResponse{Status: "error", Message: "Authentication required"})
		return
	}

	id, ok := todoID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, todoResponse{Status: "error", Message: "Todo not found"})
		return
	}

	todo, err := h.service.GetTodo(r.Context(), session, id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, todoResponse{Status: "success", Message: "Todo found", Todo: &todo})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, todoResponse{Status: "error", Message: "Todo not found"})
	case errors.Is(err, services.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, todoResponse{Status: "error", Message: "Authentication required"})
	default:
		log.Error().Err(err).Int64("todo_id", id).Msg("Failed to load todo")
		writeJSON(w, http.StatusInternalServerError, todoResponse{Status: "error", Message: "Internal error"})
	}
}

// SetShowCompleted stores the completed-visibility preference.
func (h *TodoHandler) SetShowCompleted(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	preferences.SetShowCompleted(w, session.UserID, preferences.ParseBool(r.PostFormValue("show_completed")))
	http.Redirect(w, r, "/todo/", http.StatusSeeOther)
}
