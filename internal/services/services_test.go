package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/isdelr/ender-todo/internal/database/dbtest"
	"github.com/isdelr/ender-todo/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	events []models.Event
}

func (p *recordingPublisher) Publish(event models.Event) {
	p.events = append(p.events, event)
}

type fixture struct {
	db     *sql.DB
	pub    *recordingPublisher
	users  *UserService
	events *EventService
	todos  *TodoService
	seeds  *SeedService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	users := NewUserService(db)
	users.hashCost = bcrypt.MinCost
	pub := &recordingPublisher{}
	events := NewEventService(db, pub)
	return &fixture{
		db:     db,
		pub:    pub,
		users:  users,
		events: events,
		todos:  NewTodoService(db, events, 10),
		seeds:  NewSeedService(db, users),
	}
}

func (f *fixture) user(t *testing.T, username, password string) (models.User, *models.Session) {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), username, password)
	require.NoError(t, err)
	return u, sessionFor(u)
}

func sessionFor(u models.User) *models.Session {
	return &models.Session{UserID: u.ID, Username: u.Username, ExpiresAt: time.Now().Add(time.Hour)}
}

func (f *fixture) todo(t *testing.T, sess *models.Session, description string) models.Todo {
	t.Helper()
	todo, err := f.todos.CreateTodo(context.Background(), sess, description)
	require.NoError(t, err)
	return todo
}

func ids(todos []models.Todo) []int64 {
	out := make([]int64, 0, len(todos))
	for _, todo := range todos {
		out = append(out, todo.ID)
	}
	return out
}
