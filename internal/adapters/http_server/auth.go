package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const tokenCookie = "access_token"

type userKey struct{}

// UserID returns the authenticated caller set by Auth, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// Auth verifies an HS256 token taken from the access_token cookie or a Bearer
// header and stores its "id" claim in the request context.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r)
			if raw == "" {
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "a valid access token is required")
				return
			}
			id, err := verify(raw, secret)
			if err != nil {
				log.Debug().Err(err).Msg("rejecting token")
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "a valid access token is required")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, id)))
		})
	}
}

func bearer(r *http.Request) string {
	if c, err := r.Cookie(tokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func verify(raw string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("no signing secret configured")
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", errors.New("token has no id claim")
	}
	return id, nil
}

// SignToken issues a token the Auth middleware accepts. Used by tooling and tests.
func SignToken(secret []byte, userID string, claims jwt.MapClaims) (string, error) {
	c := jwt.MapClaims{"id": userID}
	for k, v := range claims {
		c[k] = v
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}
