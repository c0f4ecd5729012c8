package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/spacetime/internal/auth"
	"github.com/lazypower/spacetime/internal/memory"
	"github.com/lazypower/spacetime/internal/server"
	"github.com/lazypower/spacetime/internal/uploads"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	files, err := uploads.NewDisk(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	memories := memory.NewService(db, files)
	memories.Logger = logger
	memories.CleanupOnDelete = cfg.Uploads.CleanupOnDelete

	srv := server.New(db, memories, files, auth.NewHMAC(cfg.Auth.Secret), server.Options{
		Version:        VersionString(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		PublicURL:      cfg.Uploads.PublicURL,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
		Logger:         logger,
	})
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("spacetime serving",
			"addr", addr,
			"db", db.Path,
			"driver", db.Driver,
			"uploads", files.Dir,
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-done:
	}
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = httpServer.Shutdown(ctx)
	// Let in-flight cover cleanups finish before the process exits.
	memories.Wait()
	return err
}
