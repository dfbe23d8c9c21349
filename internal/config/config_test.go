package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "TODOS_PER_PAGE", "DATABASE_PATH", "SEEDS_PATH", "SESSION_SECRET",
		"LOG_LEVEL", "PRUNE_SCHEDULE", "SESSION_TTL", "EVENT_RETENTION", "APP_ENV", "ALLOWED_ORIGINS",
	} {
		if v, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { _ = os.Setenv(k, v) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 10, cfg.TodosPerPage)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "0 3 * * *", cfg.PruneSchedule)
	assert.False(t, cfg.Production)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "todo.toml")
	content := `
port = 9000
database_path = "/var/lib/todo/todo.db"
todos_per_page = 25
session_ttl = "2h"
event_retention = "48h"
allowed_origins = ["https://todo.example.com"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.ServerPort, "env wins over file")
	assert.Equal(t, "/var/lib/todo/todo.db", cfg.DatabasePath)
	assert.Equal(t, 25, cfg.TodosPerPage)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 48*time.Hour, cfg.EventRetention)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.Equal(t, []string{"https://todo.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad port", env: map[string]string{"PORT": "eighty"}},
		{name: "port out of range", env: map[string]string{"PORT": "70000"}},
		{name: "bad per page", env: map[string]string{"TODOS_PER_PAGE": "0"}},
		{name: "bad ttl", env: map[string]string{"SESSION_TTL": "forever"}},
		{name: "default secret in production", env: map[string]string{"APP_ENV": "production"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
