package spaced_repetition

import (
	"testing"

	"github.com/example/wordbank/pkg/models"
	"github.com/stretchr/testify/assert"
)

func withProgress(word string, nextReview int64, d models.Difficulty) models.Word {
	return models.Word{
		Word: word,
		Progress: &models.WordProgress{
			TotalReviews: 1,
			CorrectCount: 1,
			NextReview:   nextReview,
			Interval:     1,
			EaseFactor:   2.5,
			Stage:        models.StageLearning,
			Difficulty:   d,
		},
	}
}

func wordsOf(words []models.Word) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, w.Word)
	}
	return out
}

func TestGetWordsForReviewEmpty(t *testing.T) {
	assert.Empty(t, GetWordsForReview(nil, t0))
	assert.Empty(t, GetWordsForReview([]models.Word{}, t0))
}

func TestGetWordsForReviewDifficultyPriority(t *testing.T) {
	now := t0.UnixMilli()
	words := []models.Word{
		withProgress("easy", now-1000, models.DifficultyEasy),
		withProgress("hard", now-1000, models.DifficultyHard),
	}

	assert.Equal(t, []string{"hard", "easy"}, wordsOf(GetWordsForReview(words, t0)))
}

func TestGetWordsForReviewFiltersFutureWords(t *testing.T) {
	now := t0.UnixMilli()
	words := []models.Word{
		withProgress("later", now+1, models.DifficultyHard),
		withProgress("exactly", now, models.DifficultyMedium),
		withProgress("overdue", now-5*DayMillis, models.DifficultyEasy),
	}

	assert.Equal(t, []string{"overdue", "exactly"}, wordsOf(GetWordsForReview(words, t0)))
}

func TestGetWordsForReviewWeightsOverdueTime(t *testing.T) {
	now := t0.UnixMilli()
	words := []models.Word{
		withProgress("hard-recent", now-1000, models.DifficultyHard),     // 3000
		withProgress("easy-old", now-10000, models.DifficultyEasy),       // 10000
		withProgress("medium-mid", now-4000, models.DifficultyMedium),    // 8000
		withProgress("unknown", now-2000, models.Difficulty("whatever")), // 4000
	}

	assert.Equal(t,
		[]string{"easy-old", "medium-mid", "unknown", "hard-recent"},
		wordsOf(GetWordsForReview(words, t0)))
}

func TestGetWordsForReviewMissingProgressIsDue(t *testing.T) {
	now := t0.UnixMilli()
	words := []models.Word{
		withProgress("hard", now-DayMillis, models.DifficultyHard),
		{Word: "unseen"},
	}

	due := GetWordsForReview(words, t0)
	assert.Equal(t, []string{"unseen", "hard"}, wordsOf(due))
	assert.Nil(t, due[0].Progress)
}

func TestGetWordsForReviewStableAndPure(t *testing.T) {
	now := t0.UnixMilli()
	words := []models.Word{
		withProgress("a", now-1000, models.DifficultyMedium),
		withProgress("b", now-1000, models.DifficultyMedium),
		withProgress("c", now-2000, models.DifficultyMedium),
		withProgress("d", now-1000, models.DifficultyMedium),
	}

	assert.Equal(t, []string{"c", "a", "b", "d"}, wordsOf(GetWordsForReview(words, t0)))
	assert.Equal(t, []string{"a", "b", "c", "d"}, wordsOf(words))
}

func TestGetNewWordsForLearning(t *testing.T) {
	words := []models.Word{{Word: "one"}, {Word: "two"}, {Word: "three"}, {Word: "four"}, {Word: "five"}}

	assert.Equal(t, []string{"one", "two"}, wordsOf(GetNewWordsForLearning(words, 2)))
	assert.Len(t, GetNewWordsForLearning(words, DefaultNewWordsLimit), 5)
	assert.Len(t, GetNewWordsForLearning(words, 50), 5)
	assert.Empty(t, GetNewWordsForLearning(words, 0))
	assert.Empty(t, GetNewWordsForLearning(words, -3))
}

func TestGetNewWordsForLearningSkipsReviewed(t *testing.T) {
	fresh := InitializeWordProgress(t0)
	words := []models.Word{
		withProgress("reviewed", t0.UnixMilli(), models.DifficultyEasy),
		{Word: "initialized", Progress: &fresh},
		{Word: "bare"},
	}

	assert.Equal(t, []string{"initialized", "bare"}, wordsOf(GetNewWordsForLearning(words, 5)))
}

func TestCountDueByDifficulty(t *testing.T) {
	now := t0.UnixMilli()
	due := []models.Word{
		withProgress("a", now, models.DifficultyHard),
		withProgress("b", now, models.DifficultyHard),
		withProgress("c", now, models.DifficultyEasy),
		{Word: "d"},
	}

	assert.Equal(t, map[models.Difficulty]int{
		models.DifficultyEasy:   1,
		models.DifficultyMedium: 0,
		models.DifficultyHard:   2,
	}, CountDueByDifficulty(due))
}
