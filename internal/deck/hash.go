package deck

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/conorfennell/studyhall/internal/domain"
)

// Normalize joins the card's content after cleaning each field: lowercased,
// trimmed, line endings normalized. Fields are joined with a newline so that
// field boundaries survive normalization ("front" + "back" never collapses
// into "frontback").
func Normalize(card domain.Flashcard) string {
	clean := func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimSpace(s)
		return strings.ReplaceAll(s, "\r\n", "\n")
	}
	return strings.Join([]string{clean(card.Front), clean(card.Back), clean(card.Context)}, "\n")
}

// Hash returns the SHA-256 of the normalized card content as a hex string.
// Two cards with the same content after normalization share a hash, which is
// what deck reconciliation uses to detect new and orphaned cards.
func Hash(card domain.Flashcard) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return hex.EncodeToString(sum[:])
}
