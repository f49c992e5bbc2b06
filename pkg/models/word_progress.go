package models

import (
	"errors"
	"fmt"
)

// MinEaseFactor is the lowest SM-2 ease factor a word can have
const MinEaseFactor = 1.3

// ErrInvalidProgress is returned for progress records that SM-2 can never produce
var ErrInvalidProgress = errors.New("invalid progress")

// Stage is the coarse spaced-repetition phase of a word
type Stage string

const (
	StageLearning Stage = "learning"
	StageReview   Stage = "review"
	StageMastered Stage = "mastered"
)

// Difficulty is the perceived difficulty of a word, derived from accuracy
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// WordProgress tracks the learning state of a saved word using the SM-2 algorithm.
// Timestamps are milliseconds since the Unix epoch.
type WordProgress struct {
	CorrectCount   int        `json:"correctCount" db:"correct_count"`
	IncorrectCount int        `json:"incorrectCount" db:"incorrect_count"`
	TotalReviews   int        `json:"totalReviews" db:"total_reviews"`
	LastReviewed   int64      `json:"lastReviewed" db:"last_reviewed"` // 0 if never reviewed
	NextReview     int64      `json:"nextReview" db:"next_review"`
	Interval       int        `json:"interval" db:"interval_days"` // Current interval in days
	EaseFactor     float64    `json:"easeFactor" db:"ease_factor"`  // SM-2 EF parameter
	Stage          Stage      `json:"stage" db:"stage"`
	Difficulty     Difficulty `json:"difficulty" db:"difficulty"`
	MasteryLevel   int        `json:"masteryLevel" db:"mastery_level"` // 0-100
}

// IsNew reports whether the word has never been reviewed
func (p WordProgress) IsNew() bool {
	return p.TotalReviews == 0
}

// Accuracy returns the share of correct reviews in percent
func (p WordProgress) Accuracy() float64 {
	if p.TotalReviews == 0 {
		return 0
	}
	return float64(p.CorrectCount) / float64(p.TotalReviews) * 100
}

// Validate checks that the record could have been produced by SM-2
func (p WordProgress) Validate() error {
	switch {
	case p.CorrectCount < 0 || p.IncorrectCount < 0:
		return fmt.Errorf("%w: negative review counts", ErrInvalidProgress)
	case p.TotalReviews != p.CorrectCount+p.IncorrectCount:
		return fmt.Errorf("%w: %d total reviews but %d correct and %d incorrect",
			ErrInvalidProgress, p.TotalReviews, p.CorrectCount, p.IncorrectCount)
	case p.EaseFactor < MinEaseFactor:
		return fmt.Errorf("%w: ease factor %.2f below %.1f", ErrInvalidProgress, p.EaseFactor, MinEaseFactor)
	case p.Interval < 1:
		return fmt.Errorf("%w: interval %d", ErrInvalidProgress, p.Interval)
	case p.LastReviewed < 0 || p.NextReview < 0:
		return fmt.Errorf("%w: negative timestamp", ErrInvalidProgress)
	case p.MasteryLevel < 0 || p.MasteryLevel > 100:
		return fmt.Errorf("%w: mastery level %d", ErrInvalidProgress, p.MasteryLevel)
	}

	switch p.Stage {
	case StageLearning, StageReview, StageMastered:
	default:
		return fmt.Errorf("%w: stage %q", ErrInvalidProgress, p.Stage)
	}
	switch p.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("%w: difficulty %q", ErrInvalidProgress, p.Difficulty)
	}
	return nil
}
