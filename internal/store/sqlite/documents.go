package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/docshelf/docshelf-server/internal/domain"
	"github.com/docshelf/docshelf-server/internal/store"
)

// documentColumns is the ordered list of columns selected in document queries.
// Must match the scan order in scanDocument.
const documentColumns = `id, user_id, file_name, file_url, file_type, file_create_time,
	file_comment, is_favorite, artist_name, artist_nickname, composition_name, price,
	created_at, updated_at`

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*domain.Document, error) {
	var (
		d          domain.Document
		comment    sql.NullString
		isFavorite int
		createdAt  string
		updatedAt  string
	)

	err := scanner.Scan(
		&d.ID,
		&d.UserID,
		&d.FileName,
		&d.FileURL,
		&d.FileType,
		&d.CreateTime,
		&comment,
		&isFavorite,
		&d.ArtistName,
		&d.ArtistNickname,
		&d.CompositionName,
		&d.Price,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if comment.Valid {
		c := comment.String
		d.Comment = &c
	}
	d.IsFavorite = isFavorite != 0

	return &d, nil
}

// CreateDocument inserts a document row.
func (s *Store) CreateDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, user_id, file_name, file_url, file_type, file_create_time,
			file_comment, is_favorite, artist_name, artist_nickname, composition_name, price,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID,
		doc.UserID,
		doc.FileName,
		doc.FileURL,
		doc.FileType,
		doc.CreateTime,
		nullableString(doc.Comment),
		boolToInt(doc.IsFavorite),
		doc.ArtistName,
		doc.ArtistNickname,
		doc.CompositionName,
		doc.Price,
		formatTime(doc.CreatedAt),
		formatTime(doc.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	return err
}

// GetDocument retrieves a document by ID regardless of owner.
// Returns store.ErrNotFound if the document does not exist.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDocumentsByUser returns the user's documents in upload order.
func (s *Store) ListDocumentsByUser(ctx context.Context, userID string) ([]*domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, err
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

// UpdateDocument writes the mutable fields of a document owned by doc.UserID.
// Returns store.ErrNotFound if no owned row matches.
func (s *Store) UpdateDocument(ctx context.Context, doc *domain.Document) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE documents SET file_comment = ?, is_favorite = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		nullableString(doc.Comment),
		boolToInt(doc.IsFavorite),
		formatTime(doc.UpdatedAt),
		doc.ID,
		doc.UserID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteDocument removes the row matching id and userID.
// Returns store.ErrNotFound if no owned row matches.
func (s *Store) DeleteDocument(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
