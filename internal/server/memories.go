package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/spacetime/internal/auth"
	"github.com/lazypower/spacetime/internal/memory"
)

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	summaries, err := s.memories.List(r.Context(), caller.Subject)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	rec, err := s.memories.Get(r.Context(), chi.URLParam(r, "id"), caller.Subject)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	in, err := decodeInput(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	owner := memory.User{
		ID:        caller.Subject,
		Login:     caller.Login,
		Name:      caller.Name,
		AvatarURL: caller.AvatarURL,
	}
	rec, err := s.memories.Create(r.Context(), owner, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := memory.ValidateID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := decodeInput(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.memories.Update(r.Context(), id, caller.Subject, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	if err := s.memories.Delete(r.Context(), chi.URLParam(r, "id"), caller.Subject); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var errInvalidJSON = errors.New("invalid json")

func decodeInput(r *http.Request) (memory.Input, error) {
	var in memory.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		var verr *memory.ValidationError
		if errors.As(err, &verr) {
			return in, verr
		}
		return in, errInvalidJSON
	}
	return in, nil
}

// writeError maps service errors to responses. Authorization failures get
// an empty body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *memory.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"issues": verr.Issues,
		})
	case errors.Is(err, errInvalidJSON):
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, memory.ErrUnauthorized):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, memory.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
	}
}
