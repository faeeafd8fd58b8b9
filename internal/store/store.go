// Package store defines the persistence contract shared by the SQLite and
// Postgres backends.
package store

import (
	"context"

	"github.com/docshelf/docshelf-server/internal/domain"
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a user. Returns ErrAlreadyExists on a duplicate email.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	// UpdateUser writes username, email, password hash and updated_at.
	UpdateUser(ctx context.Context, user *domain.User) error
	// DeleteUser removes the user with its token and documents in one transaction.
	DeleteUser(ctx context.Context, id string) error
}

// TokenStore persists the single bearer token each user holds.
type TokenStore interface {
	// UpsertToken inserts the token or, if the user already has one,
	// overwrites its value. The stored row is returned.
	UpsertToken(ctx context.Context, token *domain.Token) (*domain.Token, error)
	GetTokenByValue(ctx context.Context, value string) (*domain.Token, error)
	GetTokenByUser(ctx context.Context, userID string) (*domain.Token, error)
}

// DocumentStore persists document metadata.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	// ListDocumentsByUser returns the user's documents in insertion order.
	ListDocumentsByUser(ctx context.Context, userID string) ([]*domain.Document, error)
	// UpdateDocument writes comment, is_favorite and updated_at for a row
	// matching both doc.ID and doc.UserID.
	UpdateDocument(ctx context.Context, doc *domain.Document) error
	// DeleteDocument removes the row matching id and userID.
	DeleteDocument(ctx context.Context, userID, id string) error
}

// Store is the full persistence surface used by the services.
type Store interface {
	UserStore
	TokenStore
	DocumentStore

	Ping(ctx context.Context) error
	Close() error
}
