package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/studyhall/internal/domain"
)

const flashcardColumns = `id, user_id, front, back, context, difficulty, review_count, next_review, created_at, hash, source_id`

func scanFlashcard(row interface{ Scan(...any) error }) (domain.Flashcard, error) {
	var (
		c        domain.Flashcard
		hash     sql.NullString
		sourceID sql.NullInt64
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Front,
		&c.Back,
		&c.Context,
		&c.Difficulty,
		&c.ReviewCount,
		&c.NextReview,
		&c.CreatedAt,
		&hash,
		&sourceID,
	)
	if err != nil {
		return domain.Flashcard{}, err
	}
	c.Hash = hash.String
	c.SourceID = sourceID.Int64
	return c, nil
}

// InsertFlashcard stores a card and returns its ID. Hash and SourceID are
// persisted as NULL when unset, so hand-created and deck-imported cards share
// one table.
func (db *DB) InsertFlashcard(card domain.Flashcard) (int64, error) {
	var hash sql.NullString
	if card.Hash != "" {
		hash = sql.NullString{String: card.Hash, Valid: true}
	}
	var sourceID sql.NullInt64
	if card.SourceID != 0 {
		sourceID = sql.NullInt64{Int64: card.SourceID, Valid: true}
	}

	res, err := db.conn.Exec(`
		INSERT INTO flashcards (user_id, front, back, context, difficulty, review_count, next_review, created_at, hash, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		int64(card.UserID),
		card.Front,
		card.Back,
		card.Context,
		card.Difficulty,
		card.ReviewCount,
		card.NextReview,
		card.CreatedAt,
		hash,
		sourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert flashcard for user %d: %w", card.UserID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID for flashcard: %w", err)
	}
	return id, nil
}

// FindFlashcard retrieves one of a user's cards by ID, or nil if the card
// does not exist or belongs to someone else.
func (db *DB) FindFlashcard(id int64, userID domain.UserID) (*domain.Flashcard, error) {
	row := db.conn.QueryRow(`
		SELECT `+flashcardColumns+`
		FROM flashcards WHERE id = ? AND user_id = ?
	`, id, int64(userID))

	c, err := scanFlashcard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find flashcard %d: %w", id, err)
	}
	return &c, nil
}

// ListFlashcards returns all of a user's cards in creation order.
func (db *DB) ListFlashcards(userID domain.UserID) ([]domain.Flashcard, error) {
	rows, err := db.conn.Query(`
		SELECT `+flashcardColumns+`
		FROM flashcards WHERE user_id = ?
		ORDER BY id
	`, int64(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards for user %d: %w", userID, err)
	}
	defer rows.Close()

	var cards []domain.Flashcard
	for rows.Next() {
		c, err := scanFlashcard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read flashcard rows: %w", err)
	}
	return cards, nil
}

// UpdateFlashcardReview persists the outcome of a review.
func (db *DB) UpdateFlashcardReview(id int64, difficulty, reviewCount int, nextReview time.Time) error {
	_, err := db.conn.Exec(`
		UPDATE flashcards
		SET difficulty = ?, review_count = ?, next_review = ?
		WHERE id = ?
	`, difficulty, reviewCount, nextReview, id)
	if err != nil {
		return fmt.Errorf("failed to update review state for flashcard %d: %w", id, err)
	}
	return nil
}

// DeleteFlashcard removes one of a user's cards.
func (db *DB) DeleteFlashcard(id int64, userID domain.UserID) error {
	_, err := db.conn.Exec(`
		DELETE FROM flashcards
		WHERE id = ? AND user_id = ?
	`, id, int64(userID))
	if err != nil {
		return fmt.Errorf("failed to delete flashcard %d: %w", id, err)
	}
	return nil
}

// FindFlashcardByHash retrieves a card from a deck source by its content
// hash, or nil if none exists. Hashes only identify content within a source,
// so the same deck registered by two users yields a card row for each.
func (db *DB) FindFlashcardByHash(sourceID int64, hash string) (*domain.Flashcard, error) {
	row := db.conn.QueryRow(`
		SELECT `+flashcardColumns+`
		FROM flashcards WHERE source_id = ? AND hash = ?
	`, sourceID, hash)

	c, err := scanFlashcard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find flashcard by hash %s in source %d: %w", hash, sourceID, err)
	}
	return &c, nil
}

// FlashcardsBySource returns all cards imported from a deck source.
func (db *DB) FlashcardsBySource(sourceID int64) ([]domain.Flashcard, error) {
	rows, err := db.conn.Query(`
		SELECT `+flashcardColumns+`
		FROM flashcards WHERE source_id = ?
		ORDER BY id
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	var cards []domain.Flashcard
	for rows.Next() {
		c, err := scanFlashcard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard row for source %d: %w", sourceID, err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read flashcard rows for source %d: %w", sourceID, err)
	}
	return cards, nil
}

// DeleteFlashcardByHash removes a card from a deck source by its content
// hash. Other sources holding the same content keep their rows.
func (db *DB) DeleteFlashcardByHash(sourceID int64, hash string) error {
	_, err := db.conn.Exec(`
		DELETE FROM flashcards
		WHERE source_id = ? AND hash = ?
	`, sourceID, hash)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard with hash %s in source %d: %w", hash, sourceID, err)
	}
	return nil
}
