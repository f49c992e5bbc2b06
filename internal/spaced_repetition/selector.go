package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/wordbank/pkg/models"
)

// DefaultNewWordsLimit is the number of new words offered when no limit is given
const DefaultNewWordsLimit = 5

// DifficultyWeight returns the priority multiplier for a difficulty.
// Unknown or missing difficulty counts as medium.
func DifficultyWeight(d models.Difficulty) int64 {
	switch d {
	case models.DifficultyHard:
		return 3
	case models.DifficultyEasy:
		return 1
	default:
		return 2
	}
}

// nextReviewOf treats a word without progress as due since the epoch
func nextReviewOf(w models.Word) int64 {
	if w.Progress == nil {
		return 0
	}
	return w.Progress.NextReview
}

func difficultyOf(w models.Word) models.Difficulty {
	if w.Progress == nil {
		return ""
	}
	return w.Progress.Difficulty
}

// IsDue reports whether the word should be reviewed at now
func IsDue(w models.Word, now time.Time) bool {
	return nextReviewOf(w) <= now.UnixMilli()
}

// ReviewPriority scores a due word; higher is more urgent
func ReviewPriority(w models.Word, now time.Time) int64 {
	overdue := now.UnixMilli() - nextReviewOf(w)
	return overdue * DifficultyWeight(difficultyOf(w))
}

// GetWordsForReview returns the words due at now, most urgent first.
// Words with equal priority keep their input order.
func GetWordsForReview(words []models.Word, now time.Time) []models.Word {
	due := make([]models.Word, 0)
	for _, w := range words {
		if IsDue(w, now) {
			due = append(due, w)
		}
	}

	// Sort by overdue time weighted by difficulty
	sort.SliceStable(due, func(i, j int) bool {
		return ReviewPriority(due[i], now) > ReviewPriority(due[j], now)
	})

	return due
}

// GetNewWordsForLearning returns up to limit never-reviewed words in input order
func GetNewWordsForLearning(words []models.Word, limit int) []models.Word {
	if limit < 0 {
		limit = 0
	}

	fresh := make([]models.Word, 0, limit)
	for _, w := range words {
		if len(fresh) >= limit {
			break
		}
		if w.Progress == nil || w.Progress.IsNew() {
			fresh = append(fresh, w)
		}
	}
	return fresh
}

// CountDueByDifficulty groups due words by their difficulty
func CountDueByDifficulty(due []models.Word) map[models.Difficulty]int {
	counts := map[models.Difficulty]int{
		models.DifficultyEasy:   0,
		models.DifficultyMedium: 0,
		models.DifficultyHard:   0,
	}
	for _, w := range due {
		if d := difficultyOf(w); d != "" {
			counts[d]++
		}
	}
	return counts
}
