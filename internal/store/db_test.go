package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"id", "clerk_id", "email", "first_name", "last_name", "skills",
	"role", "readiness", "ai_insights", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newPostgresStoreFromDB(db), mock
}

func TestPostgresStore_GetByClerkID(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE clerk_id = \$1`).
		WithArgs("user_1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			int64(42), "user_1", "a@example.com", "Ada", "Lovelace", []byte("{Go,SQL}"),
			"Back End Developer", 20, []byte(`{"matched_roles":[]}`), created, created,
		))

	u, err := s.GetByClerkID(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, "42", u.ID)
	assert.Equal(t, []string{"Go", "SQL"}, u.Skills)
	assert.Equal(t, 20, u.Readiness)
	assert.JSONEq(t, `{"matched_roles":[]}`, string(u.AIInsights))
	assert.Equal(t, created, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetByClerkIDNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM users`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetByClerkID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_GetOrCreate(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users \(clerk_id, email, first_name, last_name\)`).
		WithArgs("user_1", "a@example.com", "Ada", "Lovelace").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			int64(1), "user_1", "a@example.com", "Ada", "Lovelace", []byte("{}"),
			"", 0, nil, now, now,
		))

	u, err := s.GetOrCreate(context.Background(), Identity{
		ClerkID: "user_1", Email: "a@example.com", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{}, u.Skills)
	assert.Nil(t, u.AIInsights)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveQuiz(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users \(clerk_id, skills, role, readiness\)`).
		WithArgs("user_1", sqlmock.AnyArg(), "Data Analyst", 30).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			int64(1), "user_1", "", "", "", []byte("{SQL,Excel,Tableau}"),
			"Data Analyst", 30, nil, now, now,
		))

	u, err := s.SaveQuiz(context.Background(), "user_1", QuizResult{
		Skills: []string{"SQL", "Excel", "Tableau"}, Role: "Data Analyst", Readiness: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL", "Excel", "Tableau"}, u.Skills)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetInsights(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	insights := json.RawMessage(`{"skill_decline_risk":[]}`)

	mock.ExpectQuery(`UPDATE users SET ai_insights = \$2::jsonb`).
		WithArgs("user_1", string(insights)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			int64(1), "user_1", "", "", "", []byte("{Go}"),
			"Software Engineer", 10, []byte(insights), now, now,
		))

	u, err := s.SetInsights(context.Background(), "user_1", insights)
	require.NoError(t, err)
	assert.JSONEq(t, string(insights), string(u.AIInsights))

	mock.ExpectQuery(`UPDATE users`).
		WithArgs("ghost", string(insights)).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err = s.SetInsights(context.Background(), "ghost", insights)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PropagatesDriverErrors(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`SELECT`).WillReturnError(boom)

	_, err := s.GetByClerkID(context.Background(), "user_1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}
