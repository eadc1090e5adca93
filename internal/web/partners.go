package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/studyhall/internal/domain"
	"github.com/conorfennell/studyhall/internal/matcher"
	"github.com/conorfennell/studyhall/internal/storage"
)

// handleFindPartners ranks candidate partners for the acting user from the
// current enrollment snapshot.
func (s *Server) handleFindPartners() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		courseSets, err := s.db.CourseSets()
		if err != nil {
			slog.Error("Error loading course sets", "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		graph := matcher.BuildGraph(courseSets)
		matches := matcher.TopMatches(graph, user, s.cfg.MatchLimit)

		results := make([]map[string]any, 0, len(matches))
		for _, m := range matches {
			peer, err := s.db.FindUser(m.PeerID)
			if err != nil {
				slog.Error("Error loading matched user", "peer", m.PeerID, "error", err)
				s.writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if peer == nil {
				continue
			}

			status := "none"
			existing, err := s.db.FindPartnershipBetween(user, m.PeerID)
			if err != nil {
				slog.Error("Error checking partnership", "peer", m.PeerID, "error", err)
				s.writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if existing != nil {
				status = existing.Status
			}

			results = append(results, map[string]any{
				"user_id":        m.PeerID,
				"email":          peer.Email,
				"match_score":    roundScore(m.Score),
				"shared_courses": m.Shared,
				"status":         status,
			})
		}

		s.writeJSON(w, http.StatusOK, map[string]any{
			"partners": results,
			"count":    len(results),
		})
	}
}

type partnerRequest struct {
	PartnerID int64 `json:"partner_id" validate:"required,gt=0"`
}

// handleRequestPartnership creates a pending partner request, scoring the
// pair from their current course sets.
func (s *Server) handleRequestPartnership() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		var req partnerRequest
		if !s.decodeValid(w, r, &req) {
			return
		}
		partner := domain.UserID(req.PartnerID)

		if partner == user {
			s.writeError(w, http.StatusBadRequest, "cannot partner with yourself")
			return
		}
		if peer, err := s.db.FindUser(partner); err != nil {
			slog.Error("Error loading partner", "partner", partner, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		} else if peer == nil {
			s.writeError(w, http.StatusNotFound, "partner not found")
			return
		}

		existing, err := s.db.FindPartnershipBetween(user, partner)
		if err != nil {
			slog.Error("Error checking partnership", "partner", partner, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if existing != nil {
			s.writeError(w, http.StatusBadRequest, "partnership already exists")
			return
		}

		mine, err := s.db.CourseSet(user)
		if err != nil {
			slog.Error("Error loading course set", "user", user, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		theirs, err := s.db.CourseSet(partner)
		if err != nil {
			slog.Error("Error loading course set", "user", partner, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		shared := matcher.Overlap(mine, theirs)
		score := matcher.Score(shared, len(mine), len(theirs))

		id, err := s.db.InsertPartnership(user, partner, score, shared)
		if err != nil {
			slog.Error("Error inserting partnership", "user", user, "partner", partner, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		s.writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Partnership request sent",
			"partnership": map[string]any{
				"id":          id,
				"partner_id":  partner,
				"match_score": roundScore(score),
				"status":      storage.PartnershipPending,
			},
		})
	}
}

// handleListPartnerships returns every partnership the user is part of.
func (s *Server) handleListPartnerships() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		partnerships, err := s.db.ListPartnerships(user)
		if err != nil {
			slog.Error("Error listing partnerships", "user", user, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		results := make([]map[string]any, 0, len(partnerships))
		for _, p := range partnerships {
			peerID := p.User2
			if peerID == user {
				peerID = p.User1
			}
			peer, err := s.db.FindUser(peerID)
			if err != nil {
				slog.Error("Error loading partner", "peer", peerID, "error", err)
				s.writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if peer == nil {
				continue
			}
			results = append(results, map[string]any{
				"partnership_id": p.ID,
				"partner_id":     peer.ID,
				"partner_email":  peer.Email,
				"match_score":    roundScore(p.MatchScore),
				"status":         p.Status,
				"created_at":     p.CreatedAt.Format(time.RFC3339),
			})
		}

		s.writeJSON(w, http.StatusOK, map[string]any{
			"partners": results,
			"count":    len(results),
		})
	}
}

// handlePartnershipDecision serves POST /partners/{id}/accept and
// POST /partners/{id}/reject. Only the recipient of a pending request may
// decide it.
func (s *Server) handlePartnershipDecision() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, "/partners/")
		var status string
		var idStr string
		switch {
		case strings.HasSuffix(rest, "/accept"):
			status = storage.PartnershipAccepted
			idStr = strings.TrimSuffix(rest, "/accept")
		case strings.HasSuffix(rest, "/reject"):
			status = storage.PartnershipRejected
			idStr = strings.TrimSuffix(rest, "/reject")
		default:
			s.writeError(w, http.StatusNotFound, "not found")
			return
		}

		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid partnership ID")
			return
		}

		p, err := s.db.FindPartnership(id)
		if err != nil {
			slog.Error("Error finding partnership", "id", id, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if p == nil {
			s.writeError(w, http.StatusNotFound, "partnership not found")
			return
		}
		if p.User2 != user {
			s.writeError(w, http.StatusForbidden, "only the recipient can decide a request")
			return
		}
		if p.Status != storage.PartnershipPending {
			s.writeError(w, http.StatusBadRequest, "partnership is not pending")
			return
		}

		if err := s.db.UpdatePartnershipStatus(id, status); err != nil {
			slog.Error("Error updating partnership", "id", id, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]any{
			"message": "Partnership " + status,
			"partnership": map[string]any{
				"id":     id,
				"status": status,
			},
		})
	}
}

// roundScore converts a [0,1] similarity to a percentage with two decimals,
// matching what clients display.
func roundScore(score float64) float64 {
	return float64(int(score*100*100+0.5)) / 100
}
