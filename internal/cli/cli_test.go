package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/spacetime/internal/auth"
	"github.com/lazypower/spacetime/internal/memory"
	"github.com/lazypower/spacetime/internal/store"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--env-file", ""))
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := run(t, "version")
	assert.True(t, strings.HasPrefix(out, "spacetime "), out)

	out = run(t, "version", "--short")
	assert.Equal(t, Version+"\n", out)
	run(t, "version", "--short=false")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("DATABASE_URL", "")

	out := run(t, "token", "user-1", "--login", "ana", "--name", "Ana", "--ttl", "1h")

	id, err := auth.NewHMAC("cli-secret").Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.Subject)
	assert.Equal(t, "ana", id.Login)
	assert.Equal(t, "Ana", id.Name)
}

func TestSweepCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "spacetime.db")
	uploadDir := filepath.Join(dir, "uploads")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SPACETIME_DB", dbPath)
	t.Setenv("SPACETIME_UPLOADS_DIR", uploadDir)

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, db.UpsertUser(ctx, memory.User{ID: "u1", Login: "u1"}))
	require.NoError(t, db.CreateMemory(ctx, &memory.Record{
		ID:        "00000000-0000-0000-0000-000000000001",
		UserID:    "u1",
		Content:   "kept",
		CoverURL:  "http://localhost:3333/uploads/keep.png",
		CoverType: memory.CoverPNG,
		CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, db.Close())

	require.NoError(t, os.MkdirAll(uploadDir, 0o755))
	for _, name := range []string{"keep.png", "orphan.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(uploadDir, name), []byte("x"), 0o644))
	}

	out := run(t, "sweep", "--dry-run")
	assert.Contains(t, out, "No orphaned uploads.", "fresh files are within the grace period")

	out = run(t, "sweep", "--dry-run", "--grace", "0s")
	assert.Contains(t, out, "would remove orphan.png")
	assert.FileExists(t, filepath.Join(uploadDir, "orphan.png"))

	out = run(t, "sweep", "--dry-run=false", "--grace", "0s")
	assert.Contains(t, out, "removed orphan.png")
	assert.NoFileExists(t, filepath.Join(uploadDir, "orphan.png"))
	assert.FileExists(t, filepath.Join(uploadDir, "keep.png"))
}
