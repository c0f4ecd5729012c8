package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Repository persists memories and their owners. Getters return (nil, nil)
// when the memory does not exist.
type Repository interface {
	CreateMemory(ctx context.Context, rec *Record) error
	GetMemory(ctx context.Context, id string) (*Record, error)
	GetMemoryWithOwner(ctx context.Context, id string) (*Record, error)
	ListMemoriesByUser(ctx context.Context, userID string) ([]Record, error)
	UpdateMemory(ctx context.Context, rec *Record) error
	DeleteMemory(ctx context.Context, id string) error
	UpsertUser(ctx context.Context, u User) error
}

// FileStore removes uploaded cover assets by name.
type FileStore interface {
	Delete(ctx context.Context, name string) error
}

const assetCleanupTimeout = 30 * time.Second

// Service implements the memory operations on top of a Repository.
type Service struct {
	repo  Repository
	files FileStore

	// Logger receives cover cleanup failures.
	Logger *slog.Logger

	// CleanupOnDelete also removes a memory's cover asset when the memory
	// is deleted. Off by default: only updates release covers.
	CleanupOnDelete bool

	now     func() time.Time
	pending sync.WaitGroup
}

// NewService creates a Service. files may be nil, in which case orphaned
// covers are left in place.
func NewService(repo Repository, files FileStore) *Service {
	return &Service{
		repo:   repo,
		files:  files,
		Logger: slog.Default(),
		now:    time.Now,
	}
}

// List returns summaries of the caller's memories, oldest first.
func (s *Service) List(ctx context.Context, callerID string) ([]Summary, error) {
	recs, err := s.repo.ListMemoriesByUser(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	return lo.Map(recs, func(r Record, _ int) Summary {
		return summarize(r)
	}), nil
}

// Get returns a memory with its owner. Private memories are only returned
// to their owner.
func (s *Service) Get(ctx context.Context, id, callerID string) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetMemoryWithOwner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	if !rec.IsPublic && rec.UserID != callerID {
		return nil, ErrUnauthorized
	}
	return rec, nil
}

// Create stores a new memory owned by owner.
func (s *Service) Create(ctx context.Context, owner User, in Input) (*Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if owner.ID == "" {
		return nil, ErrUnauthorized
	}
	if err := s.repo.UpsertUser(ctx, owner); err != nil {
		return nil, fmt.Errorf("upsert owner: %w", err)
	}

	rec := &Record{
		ID:        uuid.NewString(),
		Content:   in.Content,
		CoverURL:  in.CoverURL,
		CoverType: in.CoverType,
		IsPublic:  in.IsPublic,
		UserID:    owner.ID,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.CreateMemory(ctx, rec); err != nil {
		return nil, fmt.Errorf("create memory: %w", err)
	}
	return rec, nil
}

// Update replaces the content, cover and visibility of a memory owned by
// the caller. When the cover changes, the previous asset is removed in the
// background once the new values are stored.
func (s *Service) Update(ctx context.Context, id, callerID string, in Input) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	rec, err := s.owned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	previousCover := rec.CoverURL
	rec.Content = in.Content
	rec.CoverURL = in.CoverURL
	rec.CoverType = in.CoverType
	rec.IsPublic = in.IsPublic

	if err := s.repo.UpdateMemory(ctx, rec); err != nil {
		return nil, fmt.Errorf("update memory: %w", err)
	}

	s.releaseCover(previousCover, rec.CoverURL)
	return rec, nil
}

// Delete removes a memory owned by the caller.
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	rec, err := s.owned(ctx, id, callerID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteMemory(ctx, id); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}

	if s.CleanupOnDelete {
		s.releaseCover(rec.CoverURL, "")
	}
	return nil
}

// Wait blocks until every dispatched cover cleanup has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) owned(ctx context.Context, id, callerID string) (*Record, error) {
	rec, err := s.repo.GetMemory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	if rec.UserID != callerID {
		return nil, ErrUnauthorized
	}
	return rec, nil
}

// releaseCover schedules removal of the asset behind previous unless the
// replacement points at the same file.
func (s *Service) releaseCover(previous, replacement string) {
	if s.files == nil {
		return
	}
	name, ok := CoverFileName(previous)
	if !ok {
		return
	}
	if next, ok := CoverFileName(replacement); ok && next == name {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), assetCleanupTimeout)
		defer cancel()
		if err := s.files.Delete(ctx, name); err != nil {
			s.Logger.Warn("cover cleanup failed", "file", name, "error", err)
			return
		}
		s.Logger.Debug("cover removed", "file", name)
	}()
}
