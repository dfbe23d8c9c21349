package models

import "time"

// Session identifies the authenticated user for the duration of one request.
type Session struct {
	UserID    int64
	Username  string
	ExpiresAt time.Time
}

// Valid reports whether the session names a user and has not expired.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.UserID > 0 && now.Before(s.ExpiresAt)
}
