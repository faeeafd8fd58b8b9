package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/docshelf/docshelf-server/internal/domain"
	"github.com/docshelf/docshelf-server/internal/store"
)

const documentColumns = `id, user_id, file_name, file_url, file_type, file_create_time,
	file_comment, is_favorite, artist_name, artist_nickname, composition_name, price,
	created_at, updated_at`

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*domain.Document, error) {
	var (
		d       domain.Document
		comment sql.NullString
	)
	err := scanner.Scan(
		&d.ID, &d.UserID, &d.FileName, &d.FileURL, &d.FileType, &d.CreateTime,
		&comment, &d.IsFavorite, &d.ArtistName, &d.ArtistNickname, &d.CompositionName, &d.Price,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if comment.Valid {
		c := comment.String
		d.Comment = &c
	}
	return &d, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreateDocument inserts a document row.
func (s *Store) CreateDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, user_id, file_name, file_url, file_type, file_create_time,
			file_comment, is_favorite, artist_name, artist_nickname, composition_name, price,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		doc.ID, doc.UserID, doc.FileName, doc.FileURL, doc.FileType, doc.CreateTime,
		nullableString(doc.Comment), doc.IsFavorite, doc.ArtistName, doc.ArtistNickname,
		doc.CompositionName, doc.Price, doc.CreatedAt.UTC(), doc.UpdatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID regardless of owner.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return d, nil
}

// ListDocumentsByUser returns the user's documents in insertion order.
func (s *Store) ListDocumentsByUser(ctx context.Context, userID string) ([]*domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*domain.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateDocument writes comment, is_favorite and updated_at for an owned row.
func (s *Store) UpdateDocument(ctx context.Context, doc *domain.Document) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE documents SET file_comment = $1, is_favorite = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5`,
		nullableString(doc.Comment), doc.IsFavorite, doc.UpdatedAt.UTC(), doc.ID, doc.UserID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return affectedOrNotFound(result)
}

// DeleteDocument removes the row matching id and userID.
func (s *Store) DeleteDocument(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return affectedOrNotFound(result)
}
