package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/studyhall/internal/domain"
)

// Deck source types.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// Source is a deck source: a local directory or git repository of markdown
// decks owned by one user.
type Source struct {
	ID          int64
	UserID      domain.UserID
	Path        string
	Type        string
	LastScanned sql.NullTime
}

// InsertSource registers a new deck source and returns its ID.
func (db *DB) InsertSource(userID domain.UserID, path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO deck_sources (user_id, path, type)
		VALUES (?, ?, ?)
	`, int64(userID), path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path, or nil if none exists.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, user_id, path, type, last_scanned
		FROM deck_sources WHERE path = ?
	`, path)

	if err := row.Scan(&s.ID, &s.UserID, &s.Path, &s.Type, &s.LastScanned); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves every registered deck source.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_id, path, type, last_scanned
		FROM deck_sources
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.UserID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source rows: %w", err)
	}
	return sources, nil
}

// ListSources retrieves one user's deck sources.
func (db *DB) ListSources(userID domain.UserID) ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_id, path, type, last_scanned
		FROM deck_sources WHERE user_id = ?
		ORDER BY id
	`, int64(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list sources for user %d: %w", userID, err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.UserID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source rows: %w", err)
	}
	return sources, nil
}

// DeleteSource removes a deck source together with the cards imported from it.
func (db *DB) DeleteSource(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM flashcards WHERE source_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cards for source %d: %w", id, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM deck_sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned stamps the time a source was last reconciled.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE deck_sources
		SET last_scanned = ?
		WHERE id = ?
	`, time.Now().UTC(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source %d: %w", sourceID, err)
	}
	return nil
}
