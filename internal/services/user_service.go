package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/isdelr/ender-todo/internal/database"
	"github.com/isdelr/ender-todo/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	CreateUser(ctx context.Context, username, password string) (models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db       *sql.DB
	hashCost int
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db, hashCost: bcrypt.DefaultCost}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx, "SELECT id, username, created_at FROM users WHERE id = ?", id)
	if err := row.Scan(&user.ID, &user.Username, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// getUserByUsername retrieves a user including the password hash.
func getUserByUsername(ctx context.Context, db database.DBTX, username string) (models.User, error) {
	var user models.User
	row := db.QueryRowContext(ctx, "SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// ValidateCredentials checks the fields of a new account before it is stored.
func ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username cannot be empty", ErrValidation)
	}
	if len(username) > 255 {
		return fmt.Errorf("%w: username is too long", ErrValidation)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password cannot be empty", ErrValidation)
	}
	// bcrypt only looks at the first 72 bytes.
	if len(password) > 72 {
		return fmt.Errorf("%w: password is too long", ErrValidation)
	}
	return nil
}

// CreateUser creates a new user, hashing their password.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		var err error
		user, err = s.createUser(ctx, tx, username, password)
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) createUser(ctx context.Context, tx database.DBTX, username, password string) (models.User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO users(username, password_hash) VALUES(?, ?)", username, string(hashedPassword))
	if err != nil {
		if database.IsConstraintViolation(err) {
			return models.User{}, fmt.Errorf("%w: username %q is already taken", ErrConstraintViolation, username)
		}
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	user := models.User{ID: id, Username: username}
	row := tx.QueryRowContext(ctx, "SELECT created_at FROM users WHERE id = ?", id)
	if err := row.Scan(&user.CreatedAt); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (models.User, error) {
	user, err := getUserByUsername(ctx, s.db, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Unknown users cost the same bcrypt work as wrong passwords.
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return models.User{}, ErrAuthFailure
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrAuthFailure
	}

	// Don't hand the password hash to callers
	user.PasswordHash = ""
	return user, nil
}

var (
	dummyHashOnce  sync.Once
	dummyHashValue []byte
)

// dummyHash is built on the first unknown-user login, not at startup.
func dummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHashValue, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return dummyHashValue
}
