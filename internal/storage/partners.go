package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/studyhall/internal/domain"
)

// Partnership statuses.
const (
	PartnershipPending  = "pending"
	PartnershipAccepted = "accepted"
	PartnershipRejected = "rejected"
)

// Partnership is a stored partner request between two users. User1 sent the
// request; User2 decides it.
type Partnership struct {
	ID         int64
	User1      domain.UserID
	User2      domain.UserID
	MatchScore float64
	Shared     int
	Status     string
	CreatedAt  time.Time
}

// InsertPartnership records a pending partner request.
func (db *DB) InsertPartnership(from, to domain.UserID, score float64, shared int) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO study_partners (user1_id, user2_id, match_score, shared_courses, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, int64(from), int64(to), score, shared, PartnershipPending, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert partnership %d -> %d: %w", from, to, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID for partnership: %w", err)
	}
	return id, nil
}

// FindPartnership retrieves a partnership by ID, or nil if none exists.
func (db *DB) FindPartnership(id int64) (*Partnership, error) {
	row := db.conn.QueryRow(`
		SELECT id, user1_id, user2_id, match_score, shared_courses, status, created_at
		FROM study_partners WHERE id = ?
	`, id)
	return scanPartnership(row)
}

// FindPartnershipBetween retrieves the partnership between two users in
// either direction, or nil if none exists.
func (db *DB) FindPartnershipBetween(a, b domain.UserID) (*Partnership, error) {
	row := db.conn.QueryRow(`
		SELECT id, user1_id, user2_id, match_score, shared_courses, status, created_at
		FROM study_partners
		WHERE (user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)
	`, int64(a), int64(b), int64(b), int64(a))
	return scanPartnership(row)
}

// ListPartnerships returns every partnership a user is part of, either side.
func (db *DB) ListPartnerships(userID domain.UserID) ([]Partnership, error) {
	rows, err := db.conn.Query(`
		SELECT id, user1_id, user2_id, match_score, shared_courses, status, created_at
		FROM study_partners
		WHERE user1_id = ? OR user2_id = ?
		ORDER BY id
	`, int64(userID), int64(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list partnerships for user %d: %w", userID, err)
	}
	defer rows.Close()

	var partnerships []Partnership
	for rows.Next() {
		var p Partnership
		if err := rows.Scan(&p.ID, &p.User1, &p.User2, &p.MatchScore, &p.Shared, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan partnership row: %w", err)
		}
		partnerships = append(partnerships, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read partnership rows: %w", err)
	}
	return partnerships, nil
}

// UpdatePartnershipStatus moves a partnership to a new status.
func (db *DB) UpdatePartnershipStatus(id int64, status string) error {
	_, err := db.conn.Exec(`
		UPDATE study_partners
		SET status = ?
		WHERE id = ?
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for partnership %d: %w", id, err)
	}
	return nil
}

func scanPartnership(row *sql.Row) (*Partnership, error) {
	var p Partnership
	err := row.Scan(&p.ID, &p.User1, &p.User2, &p.MatchScore, &p.Shared, &p.Status, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan partnership: %w", err)
	}
	return &p, nil
}
