package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/isdelr/ender-todo/internal/database"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const seedSchemaURL = "https://ender-todo.local/seeds.schema.json"

// seedSchema describes the seeds file: a list of users, each with the
// todos they own.
const seedSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["username", "password"],
    "additionalProperties": false,
    "properties": {
      "username": {"type": "string", "minLength": 1, "maxLength": 255},
      "password": {"type": "string", "minLength": 1},
      "todos": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["description"],
          "additionalProperties": false,
          "properties": {
            "description": {"type": "string", "minLength": 1, "maxLength": 255},
            "completed": {"type": "boolean"}
          }
        }
      }
    }
  }
}`

// SeedUser is one account in a seeds file.
type SeedUser struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Todos    []SeedTodo `json:"todos"`
}

// SeedTodo is one todo in a seeds file.
type SeedTodo struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// SeedSummary reports what a seed run inserted.
type SeedSummary struct {
	Users int
	Todos int
}

// SeedService loads initial accounts and todos from a declarative file.
type SeedService struct {
	db    *sql.DB
	users *UserService
}

// NewSeedService creates a new SeedService.
func NewSeedService(db *sql.DB, users *UserService) *SeedService {
	return &SeedService{db: db, users: users}
}

// LoadFile reads, validates and applies the seeds file at path.
func (s *SeedService) LoadFile(ctx context.Context, path string) (SeedSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedSummary{}, fmt.Errorf("failed to read seeds file: %w", err)
	}
	return s.Load(ctx, data)
}

// Load validates data against the seeds schema and inserts everything in a
// single transaction. A username that already exists rolls back the whole
// load with ErrConstraintViolation.
func (s *SeedService) Load(ctx context.Context, data []byte) (SeedSummary, error) {
	seeds, err := parseSeeds(data)
	if err != nil {
		return SeedSummary{}, err
	}

	var summary SeedSummary
	err = database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		for _, seed := range seeds {
			user, err := s.users.createUser(ctx, tx, seed.Username, seed.Password)
			if err != nil {
				return err
			}
			summary.Users++

			for _, todo := range seed.Todos {
				if err := ValidateDescription(todo.Description); err != nil {
					return fmt.Errorf("user %q: %w", seed.Username, err)
				}
				_, err := tx.ExecContext(ctx, "INSERT INTO todos (user_id, description, completed) VALUES (?, ?, ?)",
					user.ID, todo.Description, todo.Completed)
				if err != nil {
					if database.IsConstraintViolation(err) {
						return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
					}
					return err
				}
				summary.Todos++
			}
		}
		return nil
	})
	if err != nil {
		return SeedSummary{}, err
	}
	return summary, nil
}

func parseSeeds(data []byte) ([]SeedUser, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(seedSchemaURL, strings.NewReader(seedSchema)); err != nil {
		return nil, fmt.Errorf("add seeds schema: %w", err)
	}
	schema, err := compiler.Compile(seedSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile seeds schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: seeds file is not valid JSON: %v", ErrValidation, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var seeds []SeedUser
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&seeds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return seeds, nil
}
