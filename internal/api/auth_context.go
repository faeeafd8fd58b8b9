package api

import (
	"context"

	"github.com/docshelf/docshelf-server/internal/domain"
	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// identityKey is the context key for the resolved caller.
const identityKey ctxKey = "identity"

// IdentityFrom returns the caller resolved by the route's guards.
// Returns an unauthorized error if no guard ran.
func IdentityFrom(ctx context.Context) (*domain.Identity, error) {
	identity, ok := ctx.Value(identityKey).(*domain.Identity)
	if !ok || identity == nil || identity.UserID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	return identity, nil
}

// withIdentity stores the caller in context.
func withIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
