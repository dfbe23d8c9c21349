package services

import (
	"errors"
	"time"

	"github.com/isdelr/ender-todo/internal/models"
)

var (
	// ErrValidation marks input rejected before any write.
	ErrValidation = errors.New("validation error")
	// ErrAuthFailure is returned for unknown users and wrong passwords alike.
	ErrAuthFailure = errors.New("invalid username or password")
	// ErrNotFound covers both missing rows and rows owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation wraps a store constraint failure; the
	// operation's transaction has been rolled back.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrUnauthenticated is returned by scoped operations without a session.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// requireSession is the guard at the start of every scoped operation.
func requireSession(sess *models.Session) error {
	if !sess.Valid(time.Now()) {
		return ErrUnauthenticated
	}
	return nil
}
