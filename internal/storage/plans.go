package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/conorfennell/studyhall/internal/domain"
)

// InsertPlan stores a study plan, serializing its schedule as JSON, and
// returns the plan ID.
func (db *DB) InsertPlan(plan domain.StudyPlan) (int64, error) {
	schedule, err := json.Marshal(plan.Schedule)
	if err != nil {
		return 0, fmt.Errorf("failed to encode schedule for user %d: %w", plan.UserID, err)
	}

	res, err := db.conn.Exec(`
		INSERT INTO study_plans (user_id, title, exam_date, schedule, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, int64(plan.UserID), plan.Title, plan.ExamDate, string(schedule), plan.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert study plan for user %d: %w", plan.UserID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID for study plan: %w", err)
	}
	return id, nil
}

// ListPlans returns a user's plans, newest first, without their schedules.
func (db *DB) ListPlans(userID domain.UserID) ([]domain.StudyPlan, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_id, title, exam_date, created_at
		FROM study_plans WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, int64(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list study plans for user %d: %w", userID, err)
	}
	defer rows.Close()

	var plans []domain.StudyPlan
	for rows.Next() {
		var p domain.StudyPlan
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.ExamDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan study plan row: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read study plan rows: %w", err)
	}
	return plans, nil
}

// FindPlan retrieves one of a user's plans with its full schedule, or nil if
// it does not exist or belongs to someone else.
func (db *DB) FindPlan(id int64, userID domain.UserID) (*domain.StudyPlan, error) {
	var (
		p        domain.StudyPlan
		schedule string
	)
	row := db.conn.QueryRow(`
		SELECT id, user_id, title, exam_date, schedule, created_at
		FROM study_plans WHERE id = ? AND user_id = ?
	`, id, int64(userID))

	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.ExamDate, &schedule, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find study plan %d: %w", id, err)
	}

	if err := json.Unmarshal([]byte(schedule), &p.Schedule); err != nil {
		return nil, fmt.Errorf("failed to decode schedule for study plan %d: %w", id, err)
	}
	return &p, nil
}
