package middleware

import (
	"context"
	"net/http"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/user"

	"go.uber.org/zap"
)

type TokenVerifier interface {
	Verify(raw string) (*auth.Principal, error)
}

// ProfileLookup supplies the caller's role. Roles live on the profile, never in the token.
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*user.Profile, error)
}

// Authenticate attaches a principal for requests with a valid bearer token. Requests without
// one continue anonymously; each operation decides whether that is enough.
func Authenticate(verifier TokenVerifier, profiles ProfileLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.BearerToken(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			log := logger.FromCtx(ctx).With(zap.String("layer", "middleware"))

			p, err := verifier.Verify(raw)
			if err != nil {
				log.Debug("ignoring invalid bearer token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			p.Role = auth.RoleUser
			profile, err := profiles.GetByID(ctx, p.UserID)
			switch {
			case err == nil && profile != nil:
				if profile.Role.Valid() {
					p.Role = profile.Role
				}
				if p.Email == "" {
					p.Email = profile.Email
				}
			case apperror.CodeOf(err) == apperror.CodeNotFound:
				// first sign in, the profile is created by upsertProfileIfMissing
			case err != nil:
				log.Warn("profile lookup failed, continuing as user",
					zap.String("user_id", p.UserID),
					zap.Error(err),
				)
			}

			ctx = auth.WithPrincipal(ctx, p)
			ctx = logger.WithUserID(ctx, p.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
