package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/lunchup/lunchup-be/internal/domain/user"
)

// HashToken derives the stored lookup hash for an API token: HMAC-SHA256
// keyed with the server-side pepper, hex-encoded. Raw tokens never touch the
// database, so a leaked dump cannot be replayed without the pepper.
func HashToken(token string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

type userKey struct{}

// UserFromContext returns the authenticated caller stored by Auth.
func UserFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userKey{}).(user.User)
	return u, ok
}

// Auth resolves the Bearer token to a user and stores it in the request
// context. The hash comparison happens in the database via an exact index
// lookup; computing the HMAC first keeps timing independent of stored values.
func Auth(users user.Repository, pepper []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respondError(w, http.StatusUnauthorized, "Token tidak ditemukan")
				return
			}

			u, err := users.FindByTokenHash(r.Context(), HashToken(token, pepper))
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					respondError(w, http.StatusUnauthorized, "Token tidak valid")
					return
				}
				respondDomainError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, *u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a subtree to callers with one of the given roles.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "Token tidak ditemukan")
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, "Anda tidak berhak mengakses endpoint ini")
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	return auth[len(prefix):], true
}
