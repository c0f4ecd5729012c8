package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/spacetime/internal/memory"
)

var uploadMimeRe = regexp.MustCompile(`^(image|video)/[a-zA-Z0-9.+-]+$`)

// handleUpload stores a multipart "file" field and returns its public URL.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.MaxUploadBytes
	// Leave room for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeErrorJSON(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeErrorJSON(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()

	if header.Size > limit {
		writeErrorJSON(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	if !uploadMimeRe.MatchString(header.Header.Get("Content-Type")) {
		writeErrorJSON(w, http.StatusBadRequest, "only image and video uploads are accepted")
		return
	}

	coverType, ok := memory.ParseCoverType(strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), ".")))
	if !ok {
		writeErrorJSON(w, http.StatusBadRequest, "file extension must be a cover type")
		return
	}

	name, err := s.files.Save(file, "."+string(coverType))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "upload stored", "file", name, "size", header.Size)
	writeJSON(w, http.StatusOK, map[string]string{
		"fileUrl": strings.TrimRight(s.opts.PublicURL, "/") + "/uploads/" + name,
	})
}

// handleServeUpload serves a stored asset. Directory listings are not served.
func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	path, err := s.files.Path(chi.URLParam(r, "*"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, path)
}
