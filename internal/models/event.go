package models

import "time"

// Event represents a loggable action taken by a user.
type Event struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Type      string    `json:"type"`  // e.g., "todo.create", "auth.login"
	Level     string    `json:"level"` // e.g., "info", "warn"
	Message   string    `json:"message"`
	TodoID    *int64    `json:"todoId,omitempty"` // Nullable for account-level events
	CreatedAt time.Time `json:"createdAt"`
}
