// Package srs schedules flashcard reviews with an interval-table spaced
// repetition policy.
//
// The policy is deterministic: the caller supplies the clock, and identical
// inputs always produce identical output. A correct answer promotes the card
// one difficulty level (capped at hard) and schedules it by a fixed
// days-per-level table, stretched as the review count grows. An incorrect
// answer demotes the card one level and brings it back in an hour.
package srs

import (
	"sort"
	"time"

	"github.com/conorfennell/studyhall/internal/domain"
)

// relearnDelay is how soon a card comes back after an incorrect answer.
const relearnDelay = time.Hour

// baseIntervalDays maps the difficulty level reached after a correct answer
// to a base review interval in days.
var baseIntervalDays = [3]int{
	domain.DifficultyEasy:   1,
	domain.DifficultyMedium: 3,
	domain.DifficultyHard:   7,
}

// ReviewState is the scheduling state of a single card.
type ReviewState struct {
	Difficulty  int
	ReviewCount int
	NextReview  time.Time
}

// NewState is the state of a freshly created card: easy, never reviewed,
// due immediately.
func NewState(now time.Time) ReviewState {
	return ReviewState{
		Difficulty:  domain.DifficultyEasy,
		ReviewCount: 0,
		NextReview:  now,
	}
}

// Review applies a single review outcome and returns the updated state.
// The input state is not mutated.
//
// requested optionally overrides the card's current difficulty before the
// outcome is applied; out-of-range values are clamped rather than rejected.
// now is the review time; NextReview is always strictly after it.
func Review(state ReviewState, correct bool, requested *int, now time.Time) ReviewState {
	difficulty := clampDifficulty(state.Difficulty)
	if requested != nil {
		difficulty = clampDifficulty(*requested)
	}

	count := state.ReviewCount + 1

	if !correct {
		if difficulty > domain.DifficultyEasy {
			difficulty--
		}
		return ReviewState{
			Difficulty:  difficulty,
			ReviewCount: count,
			NextReview:  now.Add(relearnDelay),
		}
	}

	if difficulty < domain.DifficultyHard {
		difficulty++
	}

	// Stretch the base interval as the card accumulates reviews, truncating
	// toward zero to whole days.
	multiplier := 1 + 0.1*float64(count)
	days := int(float64(baseIntervalDays[difficulty]) * multiplier)

	return ReviewState{
		Difficulty:  difficulty,
		ReviewCount: count,
		NextReview:  now.AddDate(0, 0, days),
	}
}

// DueCards returns the cards whose NextReview is at or before asOf, earliest
// due first. Cards due at the same instant keep their relative input order,
// so the queue is total and reproducible.
func DueCards(cards []domain.Flashcard, asOf time.Time) []domain.Flashcard {
	var due []domain.Flashcard
	for _, c := range cards {
		if !c.NextReview.After(asOf) {
			due = append(due, c)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextReview.Before(due[j].NextReview)
	})
	return due
}

func clampDifficulty(d int) int {
	if d < domain.DifficultyEasy {
		return domain.DifficultyEasy
	}
	if d > domain.DifficultyHard {
		return domain.DifficultyHard
	}
	return d
}
