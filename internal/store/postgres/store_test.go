package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/docshelf/docshelf-server/internal/domain"
	"github.com/docshelf/docshelf-server/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, nil), mock
}

var (
	userCols     = []string{"id", "username", "email", "password_hash", "created_at", "updated_at"}
	tokenCols    = []string{"id", "user_id", "value"}
	documentCols = []string{
		"id", "user_id", "file_name", "file_url", "file_type", "file_create_time",
		"file_comment", "is_favorite", "artist_name", "artist_nickname", "composition_name", "price",
		"created_at", "updated_at",
	}
)

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	s, _ := newStoreWithMock(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, s.Migrate(context.Background()))
	assert.Equal(t, "migrations", gotDir)
}

func TestMigrate_Error(t *testing.T) {
	s, _ := newStoreWithMock(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	assert.EqualError(t, s.Migrate(context.Background()), "boom")
}

func TestMigrations_Embedded(t *testing.T) {
	data, err := migrations.ReadFile("migrations/00001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "user_id TEXT NOT NULL UNIQUE")
}

func TestCreateUser(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now()
	user := &domain.User{ID: "usr-1", Username: "u1", Email: "A@x.com", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("usr-1", "u1", "A@x.com", "a@x.com", "h", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.CreateUser(context.Background(), user))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_UniqueViolation(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_key"})

	err := s.CreateUser(context.Background(), &domain.User{ID: "usr-1", Email: "a@x.com"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetUserByEmail(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email_lower = \$1`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("usr-1", "u1", "A@x.com", "h", now, now))

	u, err := s.GetUserByEmail(context.Background(), " A@X.com")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", u.ID)
	assert.Equal(t, "h", u.PasswordHash)
}

func TestGetUser_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListUsers_Empty(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at, id`).
		WillReturnRows(sqlmock.NewRows(userCols))

	users, err := s.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUpdateUser_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`UPDATE users SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateUser(context.Background(), &domain.User{ID: "ghost", Email: "g@x.com"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUser_Transaction(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tokens WHERE user_id = \$1`).WithArgs("usr-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM documents WHERE user_id = \$1`).WithArgs("usr-1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs("usr-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteUser(context.Background(), "usr-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUser_RollsBackOnFailure(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tokens`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM documents`).WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := s.DeleteUser(context.Background(), "usr-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete documents")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUser_MissingUserRollsBack(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tokens`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM documents`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, s.DeleteUser(context.Background(), "ghost"), store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertToken(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(`INSERT INTO tokens .+ ON CONFLICT \(user_id\) DO UPDATE SET value = EXCLUDED.value RETURNING`).
		WithArgs("tok-new", "usr-1", "rotated").
		WillReturnRows(sqlmock.NewRows(tokenCols).AddRow("tok-old", "usr-1", "rotated"))

	tok, err := s.UpsertToken(context.Background(), &domain.Token{ID: "tok-new", UserID: "usr-1", Value: "rotated"})
	require.NoError(t, err)
	assert.Equal(t, "tok-old", tok.ID)
	assert.Equal(t, "rotated", tok.Value)
}

func TestGetTokenByValue_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM tokens WHERE value = \$1`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetTokenByValue(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetDocument(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM documents WHERE id = \$1`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(documentCols).AddRow(
			"doc-1", "usr-1", "score.pdf", "uploads/x_score.pdf", "pdf", "2024-01-01T12:00:00",
			nil, true, "Clara Schumann", "Clara", "Trio", "9.50", now, now,
		))

	d, err := s.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", d.UserID)
	assert.Nil(t, d.Comment)
	assert.True(t, d.IsFavorite)
	assert.Equal(t, "9.50", d.Price)
	assert.Equal(t, "2024-01-01T12:00:00", d.CreateTime)
}

func TestListDocumentsByUser(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM documents WHERE user_id = \$1 ORDER BY created_at, id`).
		WithArgs("usr-1").
		WillReturnRows(sqlmock.NewRows(documentCols).
			AddRow("doc-1", "usr-1", "a.pdf", "uploads/a", "pdf", "2024", "note", false, "A", "a", "X", "1", now, now).
			AddRow("doc-2", "usr-1", "b.pdf", "uploads/b", "pdf", "2024", nil, false, "B", "b", "Y", "2", now, now))

	docs, err := s.ListDocumentsByUser(context.Background(), "usr-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.NotNil(t, docs[0].Comment)
	assert.Equal(t, "note", *docs[0].Comment)
	assert.Nil(t, docs[1].Comment)
}

func TestUpdateDocument_ScopedByOwner(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`UPDATE documents SET .+ WHERE id = \$4 AND user_id = \$5`).
		WithArgs(nil, true, sqlmock.AnyArg(), "doc-1", "usr-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateDocument(context.Background(), &domain.Document{ID: "doc-1", UserID: "usr-2", IsFavorite: true})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteDocument(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`DELETE FROM documents WHERE id = \$1 AND user_id = \$2`).
		WithArgs("doc-1", "usr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.DeleteDocument(context.Background(), "usr-1", "doc-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
