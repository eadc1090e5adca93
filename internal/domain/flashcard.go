package domain

import "time"

// Difficulty levels for a flashcard. The level doubles as the review-interval
// selector: a correct answer moves the card up a level and onto a longer
// interval. This mapping is a fixed product policy, not a judgment call.
const (
	DifficultyEasy   = 0
	DifficultyMedium = 1
	DifficultyHard   = 2
)

// Flashcard is a single front/back card together with its review state.
// Cards created through the API have Hash and SourceID empty; cards imported
// from a deck source carry a content hash for identity and the source they
// came from.
type Flashcard struct {
	ID          int64
	UserID      UserID
	Front       string
	Back        string
	Context     string
	Difficulty  int
	ReviewCount int
	NextReview  time.Time
	CreatedAt   time.Time
	Hash        string
	SourceID    int64
}
