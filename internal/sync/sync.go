// Package sync reconciles registered deck sources with the flashcard store:
// new deck cards are imported with a fresh review state, cards that vanished
// from their deck are deleted, and review state on surviving cards is left
// untouched.
package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/studyhall/internal/deck"
	"github.com/conorfennell/studyhall/internal/gitsource"
	"github.com/conorfennell/studyhall/internal/srs"
	"github.com/conorfennell/studyhall/internal/storage"
)

// Run reconciles every registered deck source. Git sources are mirrored under
// reposDir before their working copy is scanned. Per-source failures are
// logged and skipped so one broken deck cannot block the rest.
func Run(db *storage.DB, reposDir string) error {
	slog.Info("Starting sync for all deck sources")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No deck sources configured")
		return nil
	}

	if err := os.MkdirAll(reposDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("Syncing deck source", "id", source.ID, "type", source.Type, "path", source.Path)

		scanPath := source.Path
		if source.Type == storage.SourceGit {
			localPath, err := gitURLToLocalPath(reposDir, source.Path)
			if err != nil {
				slog.Error("Error determining local path for deck repo", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localPath); err != nil {
				slog.Error("Error syncing deck repo", "url", source.Path, "error", err)
				continue
			}
			scanPath = localPath
		}

		reconcile(db, source, scanPath)
	}
	slog.Info("Sync complete")
	return nil
}

// reconcile scans one source directory and brings the stored cards for that
// source in line with what the decks contain.
func reconcile(db *storage.DB, source storage.Source, scanPath string) {
	now := time.Now().UTC()
	found := make(map[string]bool)
	var imported int
	var scanErrors []error

	walkErr := filepath.WalkDir(scanPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		cards, parseErr := deck.ParseFile(path)
		if parseErr != nil {
			scanErrors = append(scanErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, card := range cards {
			card.Hash = deck.Hash(card)
			found[card.Hash] = true

			existing, findErr := db.FindFlashcardByHash(source.ID, card.Hash)
			if findErr != nil {
				scanErrors = append(scanErrors, fmt.Errorf("db check for %s: %w", card.Hash, findErr))
				continue
			}
			if existing != nil {
				continue
			}

			slog.Info("New deck card, importing", "hash", card.Hash)
			state := srs.NewState(now)
			card.UserID = source.UserID
			card.SourceID = source.ID
			card.Difficulty = state.Difficulty
			card.ReviewCount = state.ReviewCount
			card.NextReview = state.NextReview
			card.CreatedAt = now
			if _, insertErr := db.InsertFlashcard(card); insertErr != nil {
				scanErrors = append(scanErrors, fmt.Errorf("db insert for %s: %w", card.Hash, insertErr))
				continue
			}
			imported++
		}
		return nil
	})
	if walkErr != nil {
		slog.Error("Error walking deck directory", "path", scanPath, "error", walkErr)
		return
	}

	stored, err := db.FlashcardsBySource(source.ID)
	if err != nil {
		slog.Error("Error getting cards for source", "source_id", source.ID, "error", err)
		return
	}

	var orphaned int
	for _, card := range stored {
		if found[card.Hash] {
			continue
		}
		slog.Info("Orphaned deck card, deleting", "hash", card.Hash)
		orphaned++
		if err := db.DeleteFlashcardByHash(source.ID, card.Hash); err != nil {
			slog.Warn("Failed to delete orphaned card", "hash", card.Hash, "error", err)
		}
	}

	if err := db.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", scanPath,
		"deck_cards", len(found),
		"imported", imported,
		"orphaned_deleted", orphaned,
		"errors", len(scanErrors),
	)
}

// gitURLToLocalPath maps a deck repo URL to its mirror location under
// baseDir, handling both https URLs and scp-style git@host:path remotes.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		sanitized := strings.TrimSuffix(parsed.Path, ".git")
		return filepath.Join(baseDir, parsed.Host, sanitized), nil
	}

	if strings.Contains(repoURL, "@") {
		parts := strings.Split(repoURL, ":")
		if len(parts) == 2 {
			hostAndUser := strings.Split(parts[0], "@")
			if len(hostAndUser) == 2 {
				host := hostAndUser[1]
				repoPath := strings.TrimSuffix(parts[1], ".git")
				return filepath.Join(baseDir, host, repoPath), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse deck repo URL: %s", repoURL)
}

// Classify reports whether a source path looks like a git remote or a local
// directory.
func Classify(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") || strings.HasPrefix(path, "https://") {
		return storage.SourceGit
	}
	return storage.SourceLocal
}
