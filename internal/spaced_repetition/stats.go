package spaced_repetition

import (
	"math"

	"github.com/example/wordbank/pkg/models"
)

// LearnedMasteryLevel is the mastery level from which a word counts as learned
const LearnedMasteryLevel = 70

// CalculateLearningStats reduces a word bank into dashboard counters
func CalculateLearningStats(words []models.Word) models.LearningStats {
	stats := models.LearningStats{TotalWords: len(words)}
	if len(words) == 0 {
		return stats
	}

	var totalCorrect, totalMastery int
	for _, w := range words {
		p := w.Progress
		if p == nil {
			continue
		}

		if p.MasteryLevel >= LearnedMasteryLevel {
			stats.WordsLearned++
		}
		switch p.Stage {
		case models.StageLearning:
			stats.WordsInLearning++
		case models.StageReview:
			stats.WordsInReview++
		case models.StageMastered:
			stats.WordsMastered++
		}

		stats.TotalReviews += p.TotalReviews
		totalCorrect += p.CorrectCount
		totalMastery += p.MasteryLevel
	}

	if stats.TotalReviews > 0 {
		stats.OverallAccuracy = int(math.Round(float64(totalCorrect) / float64(stats.TotalReviews) * 100))
	}
	stats.AverageMastery = int(math.Round(float64(totalMastery) / float64(stats.TotalWords)))

	return stats
}
