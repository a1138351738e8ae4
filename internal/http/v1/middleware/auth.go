package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/lib/logger/sl"
)

type TokenParser interface {
	Parse(token string) (string, error)
}

type UserGetter interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type actorKey struct{}

// WithActor stores the authenticated caller in ctx.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(models.Actor)
	return actor, ok
}

// Authenticate resolves the bearer token to a stored user. The actor is read
// from storage on every request so role and team changes apply immediately.
func Authenticate(tokens TokenParser, users UserGetter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.Authenticate"

			log := log.With(slog.String("op", op))

			header := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				WriteError(w, apperrors.ErrMissingToken)
				return
			}

			userID, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				log.Debug("token rejected", sl.Err(err))
				WriteError(w, apperrors.ErrInvalidToken)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				if apperrors.KindOf(err) == apperrors.KindNotFound {
					WriteError(w, apperrors.ErrUnknownPrincipal)
					return
				}
				log.Error("failed to resolve actor", slog.String("user_id", userID), sl.Err(err))
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), models.ActorFromUser(user))))
		})
	}
}

// RequireAdmin rejects callers without the admin role. It must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			WriteError(w, apperrors.ErrMissingToken)
			return
		}
		if !actor.IsAdmin() {
			WriteError(w, apperrors.ErrAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}
