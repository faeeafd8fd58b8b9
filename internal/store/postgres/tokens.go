package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

// UpsertToken inserts the token or rotates the value of the user's existing one.
func (s *Store) UpsertToken(ctx context.Context, token *domain.Token) (*domain.Token, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO tokens (id, user_id, value) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET value = EXCLUDED.value
		RETURNING `+tokenColumns,
		token.ID, token.UserID, token.Value,
	)
	t, err := scanToken(row)
	if isUniqueViolation(err) {
		return nil, store.ErrAlreadyExists.WithMessage("token value collision")
	}
	if err != nil {
		return nil, fmt.Errorf("upsert token: %w", err)
	}
	return t, nil
}

func (s *Store) getTokenWhere(ctx context.Context, where string, arg any) (*domain.Token, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE `+where, arg)
	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select token: %w", err)
	}
	return t, nil
}

// GetTokenByValue looks a token up by exact value.
func (s *Store) GetTokenByValue(ctx context.Context, value string) (*domain.Token, error) {
	return s.getTokenWhere(ctx, `value = $1`, value)
}

// GetTokenByUser returns the token held by userID.
func (s *Store) GetTokenByUser(ctx context.Context, userID string) (*domain.Token, error) {
	return s.getTokenWhere(ctx, `user_id = $1`, userID)
}
