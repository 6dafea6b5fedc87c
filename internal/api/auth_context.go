package api

import (
	"context"
	"net/http"
	"strings"

	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
	"github.com/smakiapp/smaki-server/internal/http/response"
	"github.com/smakiapp/smaki-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	actorKey     ctxKey = "actor"
	authErrorKey ctxKey = "authError"
)

// authMiddleware verifies Bearer tokens and stores the staff actor in context.
// A missing or invalid token does not stop the request; staff handlers call
// RequireStaff, which reports why authentication failed.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			actor, err := auth.Authenticate(ctx, token)
			if err != nil {
				ctx = context.WithValue(ctx, authErrorKey, err)
			} else {
				ctx = context.WithValue(ctx, actorKey, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireStaff returns the authenticated staff actor. Expired tokens yield
// TOKEN_EXPIRED so clients know to log in again; anything else UNAUTHORIZED.
func RequireStaff(ctx context.Context) (service.Actor, error) {
	if actor, ok := ctx.Value(actorKey).(service.Actor); ok {
		return actor, nil
	}
	if err, ok := ctx.Value(authErrorKey).(error); ok {
		return service.Actor{}, err
	}
	return service.Actor{}, domainerrors.Unauthorized("authentication required")
}

// requireStaff guards plain chi handlers.
func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := RequireStaff(r.Context()); err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}
