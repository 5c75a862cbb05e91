package identity

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// User is the resolved request identity.
type User struct {
	ID    string
	Email string
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Resolver extracts the current user from a bearer token, falling back to
// the X-User-Id header used by internal callers and tests.
type Resolver struct {
	Secret []byte
}

func NewResolver(secret string) Resolver {
	return Resolver{Secret: []byte(secret)}
}

func (r Resolver) Resolve(req *http.Request) (User, bool) {
	if raw := bearerToken(req); raw != "" && len(r.Secret) > 0 {
		claims := sessionClaims{}
		token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return r.Secret, nil
		})
		if err == nil && token.Valid && claims.Subject != "" {
			return User{ID: claims.Subject, Email: claims.Email}, true
		}
	}

	if userID := strings.TrimSpace(req.Header.Get("X-User-Id")); userID != "" {
		return User{
			ID:    userID,
			Email: strings.TrimSpace(req.Header.Get("X-User-Email")),
		}, true
	}
	return User{}, false
}

func bearerToken(req *http.Request) string {
	header := strings.TrimSpace(req.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
