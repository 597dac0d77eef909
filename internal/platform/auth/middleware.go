package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/freebies-japan/api/internal/platform/logging"
)

type userContextKey struct{}

// MetadataAdmin marks an operation as admin-only in huma.Operation.Metadata.
const MetadataAdmin = "admin"

// Bearer is the security requirement attached to protected operations.
var Bearer = []map[string][]string{{"bearerAuth": {}}}

// AdminOnly is the Metadata for admin operations.
func AdminOnly() map[string]any {
	return map[string]any{MetadataAdmin: true}
}

// NewAuthMiddleware authenticates operations that declare a Security
// requirement and rejects non-admins on operations marked AdminOnly.
func NewAuthMiddleware(api huma.API, verifier Verifier) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if len(op.Security) == 0 {
			next(ctx)
			return
		}

		token, err := ExtractBearerToken(ctx.Header("Authorization"))
		if err != nil {
			applog.LogWarn(ctx.Context(), "auth failed: missing or invalid header",
				zap.String("reason", "no_token"))
			ctx.SetHeader("WWW-Authenticate", "Bearer")
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}

		user, err := verifier.Verify(ctx.Context(), token)
		if err != nil {
			applog.LogWarn(ctx.Context(), "auth failed: token verification failed",
				zap.String("reason", categorizeAuthError(err)))
			if errors.Is(err, ErrCertificateFetch) {
				ctx.SetHeader("Retry-After", "30")
				_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable,
					"authentication service temporarily unavailable")
				return
			}
			ctx.SetHeader("WWW-Authenticate", "Bearer")
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if admin, _ := op.Metadata[MetadataAdmin].(bool); admin && !user.Admin {
			applog.LogWarn(ctx.Context(), "auth failed: admin required",
				zap.String("uid", user.UID), zap.String("operation", op.OperationID))
			_ = huma.WriteErr(api, ctx, http.StatusForbidden, "admin privileges required")
			return
		}

		next(huma.WithValue(ctx, userContextKey{}, user))
	}
}

func categorizeAuthError(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, ErrUserDisabled):
		return "user_disabled"
	case errors.Is(err, ErrCertificateFetch):
		return "certificate_fetch_failed"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "unknown"
	}
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}

// WithUser stores user in ctx. Used by background jobs and tests.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// OptionalUser authenticates a public operation when a bearer token is
// present, so handlers can widen visibility for owners. Invalid tokens are
// ignored rather than rejected.
func OptionalUser(ctx context.Context, verifier Verifier, header string) *User {
	if user := UserFromContext(ctx); user != nil {
		return user
	}
	token, err := ExtractBearerToken(header)
	if err != nil {
		return nil
	}
	user, err := verifier.Verify(ctx, token)
	if err != nil {
		return nil
	}
	return user
}
