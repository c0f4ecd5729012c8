package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lazypower/spacetime/internal/auth"
	"github.com/lazypower/spacetime/internal/memory"
	"github.com/lazypower/spacetime/internal/store"
	"github.com/lazypower/spacetime/internal/uploads"
)

const testSecret = "test-secret"

type testEnv struct {
	srv   *Server
	svc   *memory.Service
	db    *store.DB
	files *uploads.Disk
	keys  *auth.HMAC
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	files, err := uploads.NewDisk(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := memory.NewService(db, files)
	svc.Logger = logger
	keys := auth.NewHMAC(testSecret)

	srv := New(db, svc, files, keys, Options{
		Version:        "test-version",
		AllowedOrigins: []string{"http://localhost:3000"},
		PublicURL:      "http://localhost:3333",
		MaxUploadBytes: 5 << 20,
		Logger:         logger,
	})
	return &testEnv{srv: srv, svc: svc, db: db, files: files, keys: keys}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	return newTestEnv(t).srv
}

func (e *testEnv) token(t *testing.T, subject string) string {
	t.Helper()
	tok, err := e.keys.Sign(auth.Identity{Subject: subject, Login: subject, Name: "Name " + subject}, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := testServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/memories"},
		{"POST", "/memories"},
		{"GET", "/memories/3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e"},
		{"PUT", "/memories/3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e"},
		{"DELETE", "/memories/3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e"},
		{"POST", "/upload"},
	}

	for _, rt := range routes {
		req := httptest.NewRequest(rt.method, rt.path, nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want %d", rt.method, rt.path, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("OPTIONS", "/memories", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want http://localhost:3000", got)
	}

	req = httptest.NewRequest("OPTIONS", "/memories", nil)
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Access-Control-Allow-Origin %q for unknown origin", got)
	}
}
