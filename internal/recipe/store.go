package recipe

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Outcome is how a generation attempt ended.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeFailed     Outcome = "failed"
	OutcomeSuperseded Outcome = "superseded"
)

// Attempt is the diagnostic record of one generation call. It never carries
// recipe content.
type Attempt struct {
	ID          string    `json:"id"`
	Ingredients []string  `json:"ingredients"`
	MealTime    MealTime  `json:"meal_time"`
	Outcome     Outcome   `json:"outcome"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	RecipeCount int       `json:"recipe_count"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// AttemptStore defines the interface for attempt log operations.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, attempt *Attempt) error
	ListAttempts(ctx context.Context, limit int) ([]*Attempt, error)
}

type attemptRow struct {
	ID          string         `db:"id"`
	Ingredients pq.StringArray `db:"ingredients"`
	MealTime    string         `db:"meal_time"`
	Outcome     string         `db:"outcome"`
	ErrorKind   string         `db:"error_kind"`
	ErrorDetail string         `db:"error_detail"`
	RecipeCount int            `db:"recipe_count"`
	DurationMS  int64          `db:"duration_ms"`
	CreatedAt   time.Time      `db:"created_at"`
}

// PostgresStore implements AttemptStore for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to dataSourceName and creates the attempts table
// if needed.
func NewPostgresStore(dataSourceName string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS generation_attempts (
		id TEXT PRIMARY KEY,
		ingredients TEXT[] NOT NULL,
		meal_time TEXT NOT NULL,
		outcome TEXT NOT NULL,
		error_kind TEXT NOT NULL DEFAULT '',
		error_detail TEXT NOT NULL DEFAULT '',
		recipe_count INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS generation_attempts_created_at_idx ON generation_attempts (created_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create generation_attempts table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// SaveAttempt inserts an attempt record.
func (s *PostgresStore) SaveAttempt(ctx context.Context, a *Attempt) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO generation_attempts
			(id, ingredients, meal_time, outcome, error_kind, error_detail, recipe_count, duration_ms, created_at)
		VALUES
			(:id, :ingredients, :meal_time, :outcome, :error_kind, :error_detail, :recipe_count, :duration_ms, :created_at)`,
		attemptRow{
			ID:          a.ID,
			Ingredients: pq.StringArray(a.Ingredients),
			MealTime:    string(a.MealTime),
			Outcome:     string(a.Outcome),
			ErrorKind:   a.ErrorKind,
			ErrorDetail: a.ErrorDetail,
			RecipeCount: a.RecipeCount,
			DurationMS:  a.DurationMS,
			CreatedAt:   a.CreatedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the most recent attempts, newest first.
func (s *PostgresStore) ListAttempts(ctx context.Context, limit int) ([]*Attempt, error) {
	var rows []attemptRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT id, ingredients, meal_time, outcome, error_kind, error_detail, recipe_count, duration_ms, created_at FROM generation_attempts ORDER BY created_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	attempts := make([]*Attempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, &Attempt{
			ID:          row.ID,
			Ingredients: []string(row.Ingredients),
			MealTime:    MealTime(row.MealTime),
			Outcome:     Outcome(row.Outcome),
			ErrorKind:   row.ErrorKind,
			ErrorDetail: row.ErrorDetail,
			RecipeCount: row.RecipeCount,
			DurationMS:  row.DurationMS,
			CreatedAt:   row.CreatedAt,
		})
	}
	return attempts, nil
}

// Close releases the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
