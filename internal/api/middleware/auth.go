package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/haas/internal/api/response"
	"github.com/edvin/haas/internal/core"
)

type contextKey string

// APIKeyIDKey carries the authenticated key id for the audit logger.
const APIKeyIDKey contextKey = "api_key_id"

// KeyStore is the part of the core pool Auth needs.
type KeyStore interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Auth validates the X-API-Key header (or a Bearer token) against the
// api_keys table.
func Auth(store KeyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = extractAPIKey(r)
			}
			if key == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			var id string
			err := store.QueryRow(r.Context(),
				`SELECT id FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL`, core.HashAPIKey(key),
			).Scan(&id)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), APIKeyIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAPIKeyID returns the authenticated key id, or "" outside Auth.
func GetAPIKeyID(ctx context.Context) string {
	id, _ := ctx.Value(APIKeyIDKey).(string)
	return id
}

func extractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return ""
}
