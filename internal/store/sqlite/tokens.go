package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/docshelf/docshelf-server/internal/domain"
	"github.com/docshelf/docshelf-server/internal/store"
)

const tokenColumns = `id, user_id, value`

func scanToken(scanner interface{ Scan(dest ...any) error }) (*domain.Token, error) {
	var t domain.Token
	if err := scanner.Scan(&t.ID, &t.UserID, &t.Value); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertToken stores token for its user in a single statement. When the user
// already holds a token its value is overwritten and the original id kept.
func (s *Store) UpsertToken(ctx context.Context, token *domain.Token) (*domain.Token, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO tokens (id, user_id, value) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET value = excluded.value
		RETURNING `+tokenColumns,
		token.ID, token.UserID, token.Value,
	)

	t, err := scanToken(row)
	if isUniqueViolation(err) {
		return nil, store.ErrAlreadyExists.WithMessage("token value collision")
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTokenByValue looks a token up by exact value.
// Returns store.ErrNotFound if no token matches.
func (s *Store) GetTokenByValue(ctx context.Context, value string) (*domain.Token, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE value = ?`, value)

	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTokenByUser returns the token held by userID.
// Returns store.ErrNotFound if the user has never logged in.
func (s *Store) GetTokenByUser(ctx context.Context, userID string) (*domain.Token, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE user_id = ?`, userID)

	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
