package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	h := NewHMAC("test-secret")
	want := Identity{Subject: "u1", Login: "octo", Name: "Octo Cat", AvatarURL: "https://a/b.png"}

	token, err := h.Sign(want, time.Hour)
	require.NoError(t, err)

	got, err := h.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVerifyRejects(t *testing.T) {
	h := NewHMAC("test-secret")

	expired, err := h.Sign(Identity{Subject: "u1"}, -time.Minute)
	require.NoError(t, err)

	otherKey, err := NewHMAC("other").Sign(Identity{Subject: "u1"}, time.Hour)
	require.NoError(t, err)

	noSub, err := h.Sign(Identity{}, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"wrong key": otherKey,
		"no sub":    noSub,
		"alg none":  none,
		"garbage":   "not.a.token",
	} {
		_, err := h.Verify(token)
		assert.Error(t, err, name)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, err := BearerToken(r)
		assert.Equal(t, tt.ok, err == nil, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestMiddleware(t *testing.T) {
	h := NewHMAC("test-secret")
	var seen Identity
	handler := Middleware(h)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/memories", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := h.Sign(Identity{Subject: "u1", Login: "octo"}, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/memories", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "u1", seen.Subject)
	assert.Equal(t, "octo", seen.Login)
}
