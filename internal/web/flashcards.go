package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/studyhall/internal/domain"
	"github.com/conorfennell/studyhall/internal/srs"
)

type flashcardResponse struct {
	ID          int64  `json:"id"`
	Front       string `json:"front"`
	Back        string `json:"back"`
	Context     string `json:"context,omitempty"`
	Difficulty  int    `json:"difficulty"`
	ReviewCount int    `json:"review_count"`
	NextReview  string `json:"next_review"`
	CreatedAt   string `json:"created_at"`
}

func toFlashcardResponse(c domain.Flashcard) flashcardResponse {
	return flashcardResponse{
		ID:          c.ID,
		Front:       c.Front,
		Back:        c.Back,
		Context:     c.Context,
		Difficulty:  c.Difficulty,
		ReviewCount: c.ReviewCount,
		NextReview:  c.NextReview.Format(time.RFC3339),
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

// handleFlashcards serves GET (list, optionally due-only) and POST (create).
func (s *Server) handleFlashcards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleListFlashcards(w, r)
		case http.MethodPost:
			s.handleCreateFlashcard(w, r)
		default:
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) handleListFlashcards(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	cards, err := s.db.ListFlashcards(user)
	if err != nil {
		slog.Error("Error listing flashcards", "user", user, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if r.URL.Query().Get("due_only") == "true" {
		cards = srs.DueCards(cards, s.now())
	}

	out := make([]flashcardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toFlashcardResponse(c))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"flashcards": out})
}

type createFlashcardRequest struct {
	Front      string `json:"front" validate:"required"`
	Back       string `json:"back" validate:"required"`
	Context    string `json:"context"`
	Difficulty int    `json:"difficulty" validate:"gte=0,lte=2"`
}

func (s *Server) handleCreateFlashcard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req createFlashcardRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	now := s.now()
	state := srs.NewState(now)
	card := domain.Flashcard{
		UserID:      user,
		Front:       req.Front,
		Back:        req.Back,
		Context:     req.Context,
		Difficulty:  req.Difficulty,
		ReviewCount: state.ReviewCount,
		NextReview:  state.NextReview,
		CreatedAt:   now,
	}

	id, err := s.db.InsertFlashcard(card)
	if err != nil {
		slog.Error("Error inserting flashcard", "user", user, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	card.ID = id

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Flashcard created successfully",
		"flashcard": toFlashcardResponse(card),
	})
}

// handleReviewQueue returns the user's due cards, earliest first, capped at
// the configured queue size.
func (s *Server) handleReviewQueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		cards, err := s.db.ListFlashcards(user)
		if err != nil {
			slog.Error("Error listing flashcards for queue", "user", user, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		due := srs.DueCards(cards, s.now())
		if len(due) > s.cfg.ReviewQueueLimit {
			due = due[:s.cfg.ReviewQueueLimit]
		}

		queue := make([]flashcardResponse, 0, len(due))
		for _, c := range due {
			queue = append(queue, toFlashcardResponse(c))
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"review_queue": queue,
			"count":        len(queue),
		})
	}
}

// handleFlashcardByID routes /flashcards/{id}/review and /flashcards/{id}.
func (s *Server) handleFlashcardByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/flashcards/")

		if idStr, found := strings.CutSuffix(rest, "/review"); found {
			if r.Method != http.MethodPost {
				s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			s.handleReviewFlashcard(w, r, idStr)
			return
		}

		if r.Method != http.MethodDelete {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleDeleteFlashcard(w, r, rest)
	}
}

type reviewRequest struct {
	Correct    bool `json:"correct"`
	Difficulty *int `json:"difficulty"`
}

func (s *Server) handleReviewFlashcard(w http.ResponseWriter, r *http.Request, idStr string) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid flashcard ID")
		return
	}

	var req reviewRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	card, err := s.db.FindFlashcard(id, user)
	if err != nil {
		slog.Error("Error finding flashcard", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if card == nil {
		s.writeError(w, http.StatusNotFound, "flashcard not found")
		return
	}

	state := srs.ReviewState{
		Difficulty:  card.Difficulty,
		ReviewCount: card.ReviewCount,
		NextReview:  card.NextReview,
	}
	next := srs.Review(state, req.Correct, req.Difficulty, s.now())

	if err := s.db.UpdateFlashcardReview(card.ID, next.Difficulty, next.ReviewCount, next.NextReview); err != nil {
		slog.Error("Error updating flashcard review", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Flashcard reviewed",
		"flashcard": map[string]any{
			"id":           card.ID,
			"difficulty":   next.Difficulty,
			"review_count": next.ReviewCount,
			"next_review":  next.NextReview.Format(time.RFC3339),
		},
	})
}

func (s *Server) handleDeleteFlashcard(w http.ResponseWriter, r *http.Request, idStr string) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid flashcard ID")
		return
	}

	card, err := s.db.FindFlashcard(id, user)
	if err != nil {
		slog.Error("Error finding flashcard", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if card == nil {
		s.writeError(w, http.StatusNotFound, "flashcard not found")
		return
	}

	if err := s.db.DeleteFlashcard(id, user); err != nil {
		slog.Error("Error deleting flashcard", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Flashcard deleted successfully"})
}
