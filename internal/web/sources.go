package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/studyhall/internal/sync"
)

// handleSources serves GET (list the user's deck sources) and POST (register
// a new one).
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleListSources(w, r)
		case http.MethodPost:
			s.handleAddSource(w, r)
		default:
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	sources, err := s.db.ListSources(user)
	if err != nil {
		slog.Error("Error listing sources", "user", user, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]map[string]any, 0, len(sources))
	for _, src := range sources {
		entry := map[string]any{
			"id":   src.ID,
			"path": src.Path,
			"type": src.Type,
		}
		if src.LastScanned.Valid {
			entry["last_scanned"] = src.LastScanned.Time.Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sources": out})
}

type addSourceRequest struct {
	Path string `json:"path" validate:"required"`
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req addSourceRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	if existing, err := s.db.FindSourceByPath(req.Path); err != nil {
		slog.Error("Error checking source", "path", req.Path, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	} else if existing != nil {
		s.writeError(w, http.StatusBadRequest, "source already registered")
		return
	}

	sourceType := sync.Classify(req.Path)
	id, err := s.db.InsertSource(user, req.Path, sourceType)
	if err != nil {
		slog.Error("Error inserting source", "path", req.Path, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Source added",
		"source": map[string]any{
			"id":   id,
			"path": req.Path,
			"type": sourceType,
		},
	})
}

// handleDeleteSource serves DELETE /sources/{id}. Deleting a source also
// removes the cards imported from it.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/sources/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid source ID")
			return
		}

		sources, err := s.db.ListSources(user)
		if err != nil {
			slog.Error("Error listing sources", "user", user, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		owned := false
		for _, src := range sources {
			if src.ID == id {
				owned = true
				break
			}
		}
		if !owned {
			s.writeError(w, http.StatusNotFound, "source not found")
			return
		}

		if err := s.db.DeleteSource(id); err != nil {
			slog.Error("Error deleting source", "id", id, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Source deleted"})
	}
}

// handlePostSync runs deck-source reconciliation in the foreground.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if err := sync.Run(s.db, s.cfg.ReposDir); err != nil {
			slog.Error("Sync failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "sync failed")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Sync complete"})
	}
}
