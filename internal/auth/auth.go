// Package auth verifies bearer tokens and carries the caller identity
// through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when the request carries no bearer token.
var ErrNoToken = errors.New("missing bearer token")

// Identity is the verified caller. Subject is the user id.
type Identity struct {
	Subject   string
	Login     string
	Name      string
	AvatarURL string
}

// Claims is the token payload issued for a signed-in user.
type Claims struct {
	Login     string `json:"login,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	jwt.RegisteredClaims
}

// Verifier turns a raw token into a caller identity.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// HMAC signs and verifies HS256 tokens with a shared secret.
type HMAC struct {
	secret []byte
}

// NewHMAC creates an HMAC verifier.
func NewHMAC(secret string) *HMAC {
	return &HMAC{secret: []byte(secret)}
}

// Verify checks the signature and expiry of token and returns its subject.
func (h *HMAC) Verify(token string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return h.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("verify token: %w", err)
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("verify token: missing sub claim")
	}
	return Identity{
		Subject:   claims.Subject,
		Login:     claims.Login,
		Name:      claims.Name,
		AvatarURL: claims.AvatarURL,
	}, nil
}

// Sign issues a token for id valid for ttl.
func (h *HMAC) Sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Login:     id.Login,
		Name:      id.Name,
		AvatarURL: id.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(token), nil
}

// Middleware rejects requests without a valid bearer token and stores the
// verified identity in the request context.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err == nil {
				var id Identity
				if id, err = v.Verify(token); err == nil {
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
					return
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`))
		})
	}
}
