// internal/handlers/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/pkg/logger"
)

// AuthTokenHeader is the header the auth service's clients send the token in.
const AuthTokenHeader = "x-auth-token"

var (
	errNoToken      = errors.New("no authentication token")
	errInvalidToken = errors.New("invalid authentication token")
)

// TokenClaims is the payload issued by the auth service: {"user": {"id", "role"}}.
type TokenClaims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

type TokenUser struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Authenticate verifies the HMAC-signed token and puts the caller's
// identity on the request context. Requests without a valid token get 401.
func Authenticate(secret []byte, slogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := ParseIdentity(r, secret)
			if err != nil {
				slogger.WarnContext(r.Context(), "authentication failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()))
				writeError(w, http.StatusUnauthorized, "authentication required", nil)
				return
			}

			ctx := domain.WithIdentity(r.Context(), identity)
			ctx = context.WithValue(ctx, logger.ContextKeyUserID, identity.UserID.String())
			ctx = context.WithValue(ctx, logger.ContextKeyOwnerID, identity.UserID.String())
			ctx = context.WithValue(ctx, logger.ContextKeyRole, identity.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseIdentity extracts and verifies the token carried by r.
func ParseIdentity(r *http.Request, secret []byte) (domain.Identity, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return domain.Identity{}, errNoToken
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, fmt.Errorf("%w: %v", errInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.User.ID)
	if err != nil || userID == uuid.Nil {
		return domain.Identity{}, fmt.Errorf("%w: user id %q", errInvalidToken, claims.User.ID)
	}
	return domain.Identity{UserID: userID, Role: claims.User.Role}, nil
}

// SignToken issues a token in the auth service's format. Used by the seeder
// and tests; this service never logs anyone in.
func SignToken(secret []byte, identity domain.Identity, claims jwt.RegisteredClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		User:             TokenUser{ID: identity.UserID.String(), Role: identity.Role},
		RegisteredClaims: claims,
	})
	return token.SignedString(secret)
}

func tokenFromRequest(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(AuthTokenHeader)); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
