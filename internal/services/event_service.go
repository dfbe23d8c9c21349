package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/ender-todo/internal/database"
	"github.com/isdelr/ender-todo/internal/models"
)

// Event types recorded in the activity log.
const (
	EventLogin        = "auth.login"
	EventTodoCreate   = "todo.create"
	EventTodoComplete = "todo.complete"
	EventTodoReopen   = "todo.reopen"
	EventTodoDelete   = "todo.delete"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, tx database.DBTX, userID int64, eventType, level, message string, todoID *int64) (models.Event, error)
	Publish(event models.Event)
	RecordLogin(ctx context.Context, user models.User) error
	GetRecentEvents(ctx context.Context, sess *models.Session, limit int) ([]models.Event, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventPublisher receives events once they are committed.
type EventPublisher interface {
	Publish(event models.Event)
}

// EventService provides business logic for event management.
type EventService struct {
	db        *sql.DB
	publisher EventPublisher
	now       func() time.Time
}

// NewEventService creates a new EventService. publisher may be nil.
func NewEventService(db *sql.DB, publisher EventPublisher) *EventService {
	return &EventService{db: db, publisher: publisher, now: time.Now}
}

// CreateEvent logs a new event through tx, so it commits or rolls back
// together with the action it describes. Callers hand the returned event to
// Publish after the commit.
func (s *EventService) CreateEvent(ctx context.Context, tx database.DBTX, userID int64, eventType, level, message string, todoID *int64) (models.Event, error) {
	event := models.Event{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      eventType,
		Level:     level,
		Message:   message,
		TodoID:    todoID,
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}

	_, err := tx.ExecContext(ctx,
		"INSERT INTO events (id, user_id, type, level, message, todo_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		event.ID, event.UserID, event.Type, event.Level, event.Message, event.TodoID, event.CreatedAt.Format(sqliteTimeLayout))
	if err != nil {
		return models.Event{}, err
	}
	return event, nil
}

// Publish forwards a committed event to live subscribers, if any.
func (s *EventService) Publish(event models.Event) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

// RecordLogin logs a successful sign-in.
func (s *EventService) RecordLogin(ctx context.Context, user models.User) error {
	event, err := s.CreateEvent(ctx, s.db, user.ID, EventLogin, "info", "Signed in as "+user.Username+".", nil)
	if err != nil {
		return err
	}
	s.Publish(event)
	return nil
}

// GetRecentEvents retrieves the session user's most recent events.
func (s *EventService) GetRecentEvents(ctx context.Context, sess *models.Session, limit int) ([]models.Event, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, level, message, todo_id, created_at
		FROM events WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, sess.UserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		var todoID sql.NullInt64
		if err := rows.Scan(&event.ID, &event.UserID, &event.Type, &event.Level, &event.Message, &todoID, &event.CreatedAt); err != nil {
			return nil, err
		}
		if todoID.Valid {
			event.TodoID = &todoID.Int64
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// PruneOlderThan deletes events created before cutoff and returns how many
// were removed.
func (s *EventService) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", cutoff.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// sqliteTimeLayout matches what CURRENT_TIMESTAMP writes.
const sqliteTimeLayout = "2006-01-02 15:04:05"
