package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/docshelf/docshelf-server/internal/auth"
	"github.com/docshelf/docshelf-server/internal/domain"
	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
	"github.com/docshelf/docshelf-server/internal/http/response"
	"github.com/docshelf/docshelf-server/internal/service"
)

const (
	bearerChallenge = `Bearer realm="docshelf"`
	basicChallenge  = `Basic realm="docshelf"`
)

// Guard resolves the caller from an Authorization header.
// It returns (nil, nil) when the header uses another scheme so the next
// guard in the chain can try.
type Guard func(ctx context.Context, authorization string) (*domain.Identity, error)

// guardChain is the ordered list of guards protecting one route, with the
// challenge sent back on 401.
type guardChain struct {
	guards    []Guard
	challenge string
}

// resolve runs the guards in order. The first identity wins and the first
// error stops the chain. If every guard passes, the caller is unauthorized.
func (c guardChain) resolve(ctx context.Context, authorization string) (*domain.Identity, error) {
	for _, guard := range c.guards {
		identity, err := guard(ctx, authorization)
		if err != nil {
			return nil, err
		}
		if identity != nil {
			return identity, nil
		}
	}
	return nil, domainerrors.Unauthorized("authentication required")
}

// bearerGuard resolves a token value to its owner.
func bearerGuard(authService *service.AuthService) Guard {
	return func(ctx context.Context, authorization string) (*domain.Identity, error) {
		if !auth.HasScheme(authorization, "Bearer") {
			return nil, nil
		}
		value, err := auth.ParseBearer(authorization)
		if err != nil {
			return nil, domainerrors.Unauthorized("malformed bearer token")
		}
		return authService.ResolveBearer(ctx, value)
	}
}

// basicGuard verifies an email and password pair.
func basicGuard(authService *service.AuthService) Guard {
	return func(ctx context.Context, authorization string) (*domain.Identity, error) {
		if !auth.HasScheme(authorization, "Basic") {
			return nil, nil
		}
		email, password, err := auth.ParseBasic(authorization)
		if err != nil {
			return nil, domainerrors.Unauthorized("malformed basic credentials")
		}
		return authService.ResolveBasic(ctx, email, password)
	}
}

// humaGuard protects a huma operation with the chain.
func (s *Server) humaGuard(chain guardChain) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		identity, err := chain.resolve(ctx.Context(), ctx.Header("Authorization"))
		if err != nil {
			apiErr := newAPIError(err)
			if apiErr.status == http.StatusUnauthorized {
				ctx.SetHeader("WWW-Authenticate", chain.challenge)
			}
			if writeErr := huma.WriteErr(s.api, ctx, apiErr.status, apiErr.Message, err); writeErr != nil {
				s.logger.Error("failed to write error response", "error", writeErr)
			}
			return
		}
		next(huma.WithValue(ctx, identityKey, identity))
	}
}

// requireGuards protects a chi-native route with the chain.
func (s *Server) requireGuards(chain guardChain) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := chain.resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				status, _ := response.Body(err)
				if status == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", chain.challenge)
				}
				response.Error(w, err, s.logger)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}
