// Package storage persists studyhall state in SQLite. All callers receive
// and hand back plain value snapshots; read-modify-write cycles (such as a
// flashcard review) are serialized by the handlers that own the records.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/studyhall/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// User is a stored user record.
type User struct {
	ID        domain.UserID
	Email     string
	CreatedAt time.Time
}

// InsertUser creates a user and returns its ID.
func (db *DB) InsertUser(email string) (domain.UserID, error) {
	res, err := db.conn.Exec(`
		INSERT INTO users (email, created_at)
		VALUES (?, ?)
	`, email, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert user %s: %w", email, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID for user %s: %w", email, err)
	}
	return domain.UserID(id), nil
}

// FindUser retrieves a user by ID, or nil if none exists.
func (db *DB) FindUser(id domain.UserID) (*User, error) {
	var u User
	row := db.conn.QueryRow(`
		SELECT id, email, created_at
		FROM users WHERE id = ?
	`, int64(id))

	if err := row.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user %d: %w", id, err)
	}
	return &u, nil
}

// InsertCourse creates a course and returns its ID.
func (db *DB) InsertCourse(name, code string) (domain.CourseID, error) {
	res, err := db.conn.Exec(`
		INSERT INTO courses (name, code, created_at)
		VALUES (?, ?, ?)
	`, name, code, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert course %s: %w", code, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID for course %s: %w", code, err)
	}
	return domain.CourseID(id), nil
}

// Enroll associates a user with a course. Enrolling twice is a no-op.
func (db *DB) Enroll(userID domain.UserID, courseID domain.CourseID) error {
	_, err := db.conn.Exec(`
		INSERT OR IGNORE INTO enrollments (user_id, course_id)
		VALUES (?, ?)
	`, int64(userID), int64(courseID))
	if err != nil {
		return fmt.Errorf("failed to enroll user %d in course %d: %w", userID, courseID, err)
	}
	return nil
}

// CourseSets returns every user's course set in one snapshot, the input the
// partner matcher runs over. Users with no enrollments are absent.
func (db *DB) CourseSets() (map[domain.UserID]domain.CourseSet, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, course_id
		FROM enrollments
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load course sets: %w", err)
	}
	defer rows.Close()

	sets := make(map[domain.UserID]domain.CourseSet)
	for rows.Next() {
		var userID, courseID int64
		if err := rows.Scan(&userID, &courseID); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
		}
		uid := domain.UserID(userID)
		if sets[uid] == nil {
			sets[uid] = make(domain.CourseSet)
		}
		sets[uid][domain.CourseID(courseID)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read enrollment rows: %w", err)
	}
	return sets, nil
}

// CourseSet returns one user's course set. No enrollments yields an empty
// set, not nil.
func (db *DB) CourseSet(userID domain.UserID) (domain.CourseSet, error) {
	rows, err := db.conn.Query(`
		SELECT course_id
		FROM enrollments WHERE user_id = ?
	`, int64(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load course set for user %d: %w", userID, err)
	}
	defer rows.Close()

	set := make(domain.CourseSet)
	for rows.Next() {
		var courseID int64
		if err := rows.Scan(&courseID); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
		}
		set[domain.CourseID(courseID)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read enrollment rows: %w", err)
	}
	return set, nil
}
