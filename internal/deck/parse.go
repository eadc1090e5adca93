// Package deck reads markdown flashcard decks and gives each card a stable
// content identity so decks can be re-imported without duplicates.
package deck

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/studyhall/internal/domain"
)

// Deck markers. A card starts at "Q:", an optional answer and context follow
// as "A:" and "C:" blocks, and "---" separates cards.
const (
	frontPrefix   = "Q:"
	backPrefix    = "A:"
	contextPrefix = "C:"
	separator     = "---"
)

type field int

const (
	none field = iota
	front
	back
	context
)

// ParseFile reads every card from the markdown file at path.
func ParseFile(path string) ([]domain.Flashcard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Parse extracts all cards from r. A card needs at least a front; cards with
// an empty front are discarded.
func Parse(r io.Reader) ([]domain.Flashcard, error) {
	var (
		cards   []domain.Flashcard
		card    domain.Flashcard
		block   []string
		current = none
	)

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch current {
		case front:
			card.Front = content
		case back:
			card.Back = content
		case context:
			card.Context = content
		}
		block = nil
	}

	flushCard := func() {
		flushBlock()
		if card.Front != "" {
			cards = append(cards, card)
		}
		card = domain.Flashcard{}
		current = none
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if line == separator {
			flushCard()
			continue
		}

		switch {
		case strings.HasPrefix(line, frontPrefix):
			// A new front always starts a new card, even without a separator.
			if current != none {
				flushCard()
			} else {
				flushBlock()
			}
			current = front
			block = append(block, trimMarker(line, frontPrefix))
		case strings.HasPrefix(line, backPrefix):
			flushBlock()
			current = back
			block = append(block, trimMarker(line, backPrefix))
		case strings.HasPrefix(line, contextPrefix):
			flushBlock()
			current = context
			block = append(block, trimMarker(line, contextPrefix))
		default:
			if current != none {
				block = append(block, line)
			}
		}
	}
	flushCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

// trimMarker drops the field marker and a single following space, keeping any
// further indentation intact.
func trimMarker(line, prefix string) string {
	rest := line[len(prefix):]
	return strings.TrimPrefix(rest, " ")
}
