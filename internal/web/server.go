// Package web exposes the studyhall JSON API: flashcards and their review
// queue, study plans, partner matching, and deck-source management.
//
// Authentication is out of scope for this service; callers are trusted to
// identify themselves with the X-User-ID header set by the gateway upstream.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/studyhall/internal/domain"
	"github.com/conorfennell/studyhall/internal/storage"
)

// Config carries the handler-level limits and defaults.
type Config struct {
	ReviewQueueLimit int
	MatchLimit       int
	HoursPerDay      float64
	ReposDir         string
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db       *storage.DB
	cfg      Config
	router   *http.ServeMux
	validate *validator.Validate

	// now is the server clock. The scheduling packages never read the wall
	// clock themselves; handlers pass this in, and tests can pin it.
	now func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, cfg Config) *Server {
	s := &Server{
		db:       db,
		cfg:      cfg,
		router:   http.NewServeMux(),
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("/flashcards", s.handleFlashcards())
	s.router.HandleFunc("/flashcards/review-queue", s.handleReviewQueue())
	s.router.HandleFunc("/flashcards/", s.handleFlashcardByID())

	s.router.HandleFunc("/study-plans", s.handleStudyPlans())
	s.router.HandleFunc("/study-plans/", s.handleStudyPlanDetail())

	s.router.HandleFunc("/partners/find", s.handleFindPartners())
	s.router.HandleFunc("/partners/request", s.handleRequestPartnership())
	s.router.HandleFunc("/partners", s.handleListPartnerships())
	s.router.HandleFunc("/partners/", s.handlePartnershipDecision())

	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

// userID extracts the acting user from the X-User-ID header.
func (s *Server) userID(r *http.Request) (domain.UserID, bool) {
	raw := r.Header.Get("X-User-ID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return domain.UserID(id), true
}

// decodeValid decodes the JSON request body into v and runs its validation
// tags. Returns false after writing the error response.
func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// requireUser writes a 400 and returns false when no valid X-User-ID header
// is present.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	user, ok := s.userID(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "missing or invalid X-User-ID header")
		return 0, false
	}
	return user, true
}
