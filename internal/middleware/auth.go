// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserIDKey is the context key for the signed-in user id.
	UserIDKey ContextKey = "user_id"
)

// Claims represents JWT claims. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Auth creates JWT authentication middleware. Requests without a valid
// bearer token are rejected.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, status := parseBearer(r, jwtSecret)
			if status != 0 {
				http.Error(w, `{"error":"unauthorized"}`, status)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth creates middleware for routes that also serve anonymous
// clients (the inline share-import path). A missing token passes through
// with no identity; a present-but-invalid token is still rejected.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, status := parseBearer(r, jwtSecret)
			if status != 0 {
				http.Error(w, `{"error":"unauthorized"}`, status)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseBearer returns the token subject, or a non-zero HTTP status on
// failure.
func parseBearer(r *http.Request, jwtSecret string) (string, int) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", http.StatusUnauthorized
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", http.StatusUnauthorized
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", http.StatusUnauthorized
	}
	return claims.Subject, 0
}

// GetUserID gets the signed-in user id from context; empty when anonymous.
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(UserIDKey); v != nil {
		return v.(string)
	}
	return ""
}
