package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const userColumns = `id, clerk_id, email, first_name, last_name, skills, role, readiness, ai_insights, created_at, updated_at`

// PostgresStore keeps users in a relational table; skills are a text[] and
// insights a JSONB column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func newPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunMigrations applies every pending embedded migration to the database at dbURL.
func RunMigrations(dbURL string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to execute migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByClerkID(ctx context.Context, clerkID string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE clerk_id = $1
`, clerkID)
	return scanUser(row)
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, id Identity) (*User, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	row := s.db.QueryRowContext(ctx, `
INSERT INTO users (clerk_id, email, first_name, last_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (clerk_id) DO UPDATE SET
    clerk_id = users.clerk_id
RETURNING `+userColumns, id.ClerkID, id.Email, id.FirstName, id.LastName)
	return scanUser(row)
}

func (s *PostgresStore) SaveQuiz(ctx context.Context, clerkID string, quiz QuizResult) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
INSERT INTO users (clerk_id, skills, role, readiness)
VALUES ($1, $2, $3, $4)
ON CONFLICT (clerk_id) DO UPDATE SET
    skills = EXCLUDED.skills,
    role = EXCLUDED.role,
    readiness = EXCLUDED.readiness,
    updated_at = NOW()
RETURNING `+userColumns, clerkID, pq.Array(normalizeSkills(quiz.Skills)), quiz.Role, quiz.Readiness)
	return scanUser(row)
}

func (s *PostgresStore) SetInsights(ctx context.Context, clerkID string, insights json.RawMessage) (*User, error) {
	var payload any
	if insights != nil {
		payload = string(insights)
	}
	row := s.db.QueryRowContext(ctx, `
UPDATE users
SET ai_insights = $2::jsonb, updated_at = NOW()
WHERE clerk_id = $1
RETURNING `+userColumns, clerkID, payload)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u        User
		id       int64
		insights []byte
	)

	if err := row.Scan(
		&id,
		&u.ClerkID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		pq.Array(&u.Skills),
		&u.Role,
		&u.Readiness,
		&insights,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	u.ID = strconv.FormatInt(id, 10)
	u.Skills = normalizeSkills(u.Skills)
	if len(insights) > 0 {
		u.AIInsights = json.RawMessage(insights)
	}
	return &u, nil
}
