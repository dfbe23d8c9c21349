package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/isdelr/ender-todo/internal/database"
	"github.com/isdelr/ender-todo/internal/models"
)

const (
	// MaxDescriptionLength is the widest description the todos table holds.
	MaxDescriptionLength = 255
	// MaxPerPage caps the page size a client can ask for.
	MaxPerPage = 100
)

// TodoAction is a mutation applied by UpdateTodo. Build one with
// SetCompleted or Delete.
type TodoAction struct {
	remove    bool
	completed bool
}

// SetCompleted sets the completed flag. Applying it twice is a no-op.
func SetCompleted(completed bool) TodoAction { return TodoAction{completed: completed} }

// Delete removes the todo permanently.
func Delete() TodoAction { return TodoAction{remove: true} }

// IsDelete reports whether the action removes the todo.
func (a TodoAction) IsDelete() bool { return a.remove }

// Completed is the flag value a SetCompleted action writes.
func (a TodoAction) Completed() bool { return a.completed }

// ListOptions selects one page of a user's todos.
type ListOptions struct {
	Page          int
	PerPage       int
	ShowCompleted bool
}

// TodoServiceProvider defines the interface for todo services.
type TodoServiceProvider interface {
	CreateTodo(ctx context.Context, sess *models.Session, description string) (models.Todo, error)
	GetTodo(ctx context.Context, sess *models.Session, id int64) (models.Todo, error)
	ListTodos(ctx context.Context, sess *models.Session, opts ListOptions) (models.Page[models.Todo], error)
	UpdateTodo(ctx context.Context, sess *models.Session, id int64, action TodoAction) (models.Todo, error)
}

// TodoService applies the ownership and state rules for todos. Every
// operation is scoped to the session's user.
type TodoService struct {
	db             *sql.DB
	eventService   EventServiceProvider
	defaultPerPage int
}

// NewTodoService creates a new TodoService.
func NewTodoService(db *sql.DB, eventService EventServiceProvider, defaultPerPage int) *TodoService {
	if defaultPerPage <= 0 {
		defaultPerPage = 10
	}
	return &TodoService{
		db:             db,
		eventService:   eventService,
		defaultPerPage: defaultPerPage,
	}
}

// ValidateDescription rejects descriptions that are blank after trimming or
// longer than MaxDescriptionLength.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: todo description cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: todo description cannot exceed %d characters", ErrValidation, MaxDescriptionLength)
	}
	return nil
}

// CreateTodo stores a new, incomplete todo owned by the session user.
func (s *TodoService) CreateTodo(ctx context.Context, sess *models.Session, description string) (models.Todo, error) {
	if err := requireSession(sess); err != nil {
		return models.Todo{}, err
	}
	if err := ValidateDescription(description); err != nil {
		return models.Todo{}, err
	}

	var todo models.Todo
	var event models.Event
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		res, err := tx.ExecContext(ctx, "INSERT INTO todos (user_id, description, completed) VALUES (?, ?, 0)", sess.UserID, description)
		if err != nil {
			// A signed session can outlive its account.
			if database.IsForeignKeyViolation(err) {
				return fmt.Errorf("account %d no longer exists: %w", sess.UserID, ErrUnauthenticated)
			}
			if database.IsConstraintViolation(err) {
				return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}

		todo, err = getTodo(ctx, tx, sess.UserID, id)
		if err != nil {
			return err
		}
		event, err = s.eventService.CreateEvent(ctx, tx, sess.UserID, EventTodoCreate, "info",
			fmt.Sprintf("Todo '%s' created.", summarize(description)), &todo.ID)
		return err
	})
	if err != nil {
		return models.Todo{}, err
	}
	s.eventService.Publish(event)
	return todo, nil
}

// GetTodo returns the todo only if the session user owns it. Missing and
// foreign todos both yield ErrNotFound.
func (s *TodoService) GetTodo(ctx context.Context, sess *models.Session, id int64) (models.Todo, error) {
	if err := requireSession(sess); err != nil {
		return models.Todo{}, err
	}
	return getTodo(ctx, s.db, sess.UserID, id)
}

// ListTodos returns one page of the session user's todos, incomplete ones
// first and newest first within each group.
func (s *TodoService) ListTodos(ctx context.Context, sess *models.Session, opts ListOptions) (models.Page[models.Todo], error) {
	if err := requireSession(sess); err != nil {
		return models.Page[models.Todo]{}, err
	}

	page, perPage := opts.Page, opts.PerPage
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.defaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	filter := "user_id = ?"
	if !opts.ShowCompleted {
		filter += " AND completed = 0"
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM todos WHERE "+filter, sess.UserID).Scan(&total); err != nil {
		return models.Page[models.Todo]{}, err
	}
	// Past the last page; also keeps (page-1)*perPage from overflowing.
	if page-1 > (total-1)/perPage {
		return models.NewPage[models.Todo](nil, page, perPage, total), nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, description, completed, created_at
		FROM todos WHERE `+filter+`
		ORDER BY completed ASC, id DESC
		LIMIT ? OFFSET ?`, sess.UserID, perPage, (page-1)*perPage)
	if err != nil {
		return models.Page[models.Todo]{}, err
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return models.Page[models.Todo]{}, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Todo]{}, err
	}
	return models.NewPage(todos, page, perPage, total), nil
}

// UpdateTodo applies action to a todo owned by the session user. For Delete
// the returned todo is the state it had before removal.
func (s *TodoService) UpdateTodo(ctx context.Context, sess *models.Session, id int64, action TodoAction) (models.Todo, error) {
	if err := requireSession(sess); err != nil {
		return models.Todo{}, err
	}

	var todo models.Todo
	var event models.Event
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		var err error
		todo, err = getTodo(ctx, tx, sess.UserID, id)
		if err != nil {
			return err
		}

		if action.IsDelete() {
			if _, err := tx.ExecContext(ctx, "DELETE FROM todos WHERE id = ? AND user_id = ?", id, sess.UserID); err != nil {
				return err
			}
			event, err = s.eventService.CreateEvent(ctx, tx, sess.UserID, EventTodoDelete, "warn",
				fmt.Sprintf("Todo '%s' was deleted.", summarize(todo.Description)), &todo.ID)
			return err
		}

		if _, err := tx.ExecContext(ctx, "UPDATE todos SET completed = ? WHERE id = ? AND user_id = ?", action.Completed(), id, sess.UserID); err != nil {
			return err
		}
		todo.Completed = action.Completed()

		eventType, verb := EventTodoReopen, "marked as not completed"
		if todo.Completed {
			eventType, verb = EventTodoComplete, "marked as completed"
		}
		event, err = s.eventService.CreateEvent(ctx, tx, sess.UserID, eventType, "info",
			fmt.Sprintf("Todo '%s' %s.", summarize(todo.Description), verb), &todo.ID)
		return err
	})
	if err != nil {
		return models.Todo{}, err
	}
	s.eventService.Publish(event)
	return todo, nil
}

// getTodo is the scoped lookup shared by all operations.
func getTodo(ctx context.Context, db database.DBTX, userID, id int64) (models.Todo, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, user_id, description, completed, created_at
		FROM todos WHERE id = ? AND user_id = ?`, id, userID)
	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Todo{}, fmt.Errorf("todo %d: %w", id, ErrNotFound)
		}
		return models.Todo{}, err
	}
	return todo, nil
}

// scanTodo is a helper to scan a todo from a row or rows object.
func scanTodo(scanner interface{ Scan(...interface{}) error }) (models.Todo, error) {
	var todo models.Todo
	err := scanner.Scan(&todo.ID, &todo.UserID, &todo.Description, &todo.Completed, &todo.CreatedAt)
	return todo, err
}

// summarize shortens a description for event messages.
func summarize(description string) string {
	const limit = 40
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) <= limit {
		return description
	}
	return string([]rune(description)[:limit-3]) + "..."
}
