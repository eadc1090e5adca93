package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/studyhall/internal/domain"
	"github.com/conorfennell/studyhall/internal/planner"
)

const examDateLayout = "2006-01-02"

// handleStudyPlans serves POST (create a plan) and GET (list plans).
func (s *Server) handleStudyPlans() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.handleCreateStudyPlan(w, r)
		case http.MethodGet:
			s.handleListStudyPlans(w, r)
		default:
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

type createPlanRequest struct {
	Title       string         `json:"title"`
	ExamDate    string         `json:"exam_date" validate:"required,datetime=2006-01-02"`
	Topics      []domain.Topic `json:"topics" validate:"required,min=1,dive"`
	HoursPerDay float64        `json:"hours_per_day" validate:"omitempty,gt=0"`
}

func (s *Server) handleCreateStudyPlan(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req createPlanRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	for _, t := range req.Topics {
		if t.Name == "" || t.Weight <= 0 {
			s.writeError(w, http.StatusBadRequest, "every topic needs a name and a positive weight")
			return
		}
	}

	title := req.Title
	if title == "" {
		title = "My Study Plan"
	}
	hoursPerDay := req.HoursPerDay
	if hoursPerDay == 0 {
		hoursPerDay = s.cfg.HoursPerDay
	}

	now := s.now()
	examDate, err := time.Parse(examDateLayout, req.ExamDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid exam date")
		return
	}
	daysUntil := int(examDate.Sub(now).Hours() / 24)
	if daysUntil <= 0 {
		s.writeError(w, http.StatusBadRequest, "exam date must be in the future")
		return
	}

	allocations, err := planner.Allocate(daysUntil, req.Topics, hoursPerDay)
	if err != nil {
		if errors.Is(err, planner.ErrInvalidScheduleRequest) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("Error allocating study plan", "user", user, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Stamp concrete dates onto the day indices, starting tomorrow.
	schedule := make([]domain.ScheduledDay, len(allocations))
	for i, day := range allocations {
		date := now.AddDate(0, 0, day.DayIndex+1)
		schedule[i] = domain.ScheduledDay{
			Date:       date.Format(examDateLayout),
			DayOfWeek:  date.Weekday().String(),
			Topics:     day.Topics,
			TotalHours: day.TotalHours,
		}
	}

	plan := domain.StudyPlan{
		UserID:    user,
		Title:     title,
		ExamDate:  examDate,
		Schedule:  schedule,
		CreatedAt: now,
	}
	id, err := s.db.InsertPlan(plan)
	if err != nil {
		slog.Error("Error inserting study plan", "user", user, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Study plan generated successfully",
		"plan_id":  id,
		"schedule": schedule,
	})
}

func (s *Server) handleListStudyPlans(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	plans, err := s.db.ListPlans(user)
	if err != nil {
		slog.Error("Error listing study plans", "user", user, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	now := s.now()
	out := make([]map[string]any, 0, len(plans))
	for _, p := range plans {
		out = append(out, map[string]any{
			"id":             p.ID,
			"title":          p.Title,
			"exam_date":      p.ExamDate.Format(examDateLayout),
			"created_at":     p.CreatedAt.Format(time.RFC3339),
			"days_remaining": int(p.ExamDate.Sub(now).Hours() / 24),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"plans": out})
}

// handleStudyPlanDetail serves GET /study-plans/{id}.
func (s *Server) handleStudyPlanDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/study-plans/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid plan ID")
			return
		}

		plan, err := s.db.FindPlan(id, user)
		if err != nil {
			slog.Error("Error finding study plan", "id", id, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if plan == nil {
			s.writeError(w, http.StatusNotFound, "plan not found")
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]any{
			"id":        plan.ID,
			"title":     plan.Title,
			"exam_date": plan.ExamDate.Format(examDateLayout),
			"schedule":  plan.Schedule,
		})
	}
}
