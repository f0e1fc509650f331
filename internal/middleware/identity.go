package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Strob0t/crmlite/internal/domain/user"
	"github.com/Strob0t/crmlite/internal/logger"
)

const (
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"
	headerUserName  = "X-User-Name"
)

type userIDCtxKey struct{}

// UserEnsurer creates a user on first reference.
type UserEnsurer interface {
	Upsert(ctx context.Context, req user.CreateRequest) (*user.User, error)
}

// Identity is middleware that reads the caller identity set by the fronting
// identity provider. Requests without X-User-ID are rejected with 401. When
// X-User-Email is also present the user is upserted, so a caller exists
// before any opportunity references it.
func Identity(users UserEnsurer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := r.Header.Get(headerUserID)
			if uid == "" {
				http.Error(w, `{"error":"X-User-ID header required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDCtxKey{}, uid)
			ctx = logger.WithUserID(ctx, uid)

			if email := r.Header.Get(headerUserEmail); email != "" && users != nil {
				req := user.CreateRequest{ID: uid, Email: email}
				if name := r.Header.Get(headerUserName); name != "" {
					req.FullName = &name
				}
				if _, err := users.Upsert(ctx, req); err != nil {
					slog.WarnContext(ctx, "identity upsert failed", "error", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the caller's user ID, or "" if absent.
func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(userIDCtxKey{}).(string)
	return uid
}

// ContextWithUserID returns ctx carrying uid as the caller identity. Used by
// the CLI, which has no HTTP request to read headers from.
func ContextWithUserID(ctx context.Context, uid string) context.Context {
	return logger.WithUserID(context.WithValue(ctx, userIDCtxKey{}, uid), uid)
}
