package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/wordbank/pkg/models"
)

// DayMillis is the length of one interval day in milliseconds
const DayMillis int64 = 24 * 60 * 60 * 1000

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Ответы с качеством не ниже порога считаются правильными
	PassThreshold int
	// Нижняя граница фактора легкости
	MinEaseFactor float64
	// Фактор легкости нового слова
	InitialEaseFactor float64
	// Интервал после первого успешного повторения, в днях
	FirstInterval int
	// Minimum interval and correct answers for a word to count as mastered
	MasteredInterval int
	MasteredCorrect  int
	// Maximum interval in days, 0 disables the cap
	MaxInterval int
	// Stage is review once the interval reaches this many days
	ReviewInterval int
}

// NewSM2 создает новый экземпляр SM2 с настройками по умолчанию
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:     3,
		MinEaseFactor:     models.MinEaseFactor,
		InitialEaseFactor: 2.5,
		FirstInterval:     6,
		MasteredInterval:  21,
		MasteredCorrect:   5,
		ReviewInterval:    6,
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// ClampQuality forces a rating into the 0-5 range
func ClampQuality(q int) QualityResponse {
	if q < int(QualityBlackout) {
		return QualityBlackout
	}
	if q > int(QualityPerfect) {
		return QualityPerfect
	}
	return QualityResponse(q)
}

var defaultSM2 = NewSM2()

// InitializeWordProgress returns the progress of a word that has never been reviewed.
// The word is due immediately.
func InitializeWordProgress(now time.Time) models.WordProgress {
	return defaultSM2.Initialize(now)
}

// UpdateProgress applies one review to progress with the default SM-2 settings
func UpdateProgress(progress models.WordProgress, quality QualityResponse, now time.Time) models.WordProgress {
	return defaultSM2.Process(progress, quality, now)
}

// Initialize returns fresh progress using the configured initial ease factor
func (sm *SM2) Initialize(now time.Time) models.WordProgress {
	return models.WordProgress{
		NextReview:   now.UnixMilli(),
		Interval:     1,
		EaseFactor:   sm.InitialEaseFactor,
		Stage:        models.StageLearning,
		Difficulty:   models.DifficultyMedium,
		MasteryLevel: 0,
	}
}

// Process implements the SM-2 algorithm and returns the progress after one review.
// The input value is not modified.
func (sm *SM2) Process(progress models.WordProgress, quality QualityResponse, now time.Time) models.WordProgress {
	quality = ClampQuality(int(quality))
	next := progress

	next.TotalReviews++
	next.LastReviewed = now.UnixMilli()

	correct := int(quality) >= sm.PassThreshold
	if correct {
		next.CorrectCount++
	} else {
		next.IncorrectCount++
	}

	next.EaseFactor = sm.nextEaseFactor(progress.EaseFactor, quality)

	if !correct {
		// Ошибка всегда возвращает слово в короткий цикл
		next.Interval = 1
		next.Stage = models.StageLearning
	} else {
		next.Interval = sm.nextInterval(progress.Interval, next.EaseFactor)
		next.Stage = sm.classifyStage(next)
	}

	next.NextReview = next.LastReviewed + int64(next.Interval)*DayMillis

	accuracy := next.Accuracy()
	next.MasteryLevel = MasteryLevel(accuracy, next.CorrectCount)
	next.Difficulty = ClassifyDifficulty(accuracy)

	return next
}

func (sm *SM2) nextEaseFactor(ef float64, quality QualityResponse) float64 {
	q := 5.0 - float64(quality)
	newEF := ef + (0.1 - q*(0.08+q*0.02))
	if newEF < sm.MinEaseFactor {
		newEF = sm.MinEaseFactor
	}
	return newEF
}

func (sm *SM2) nextInterval(interval int, ef float64) int {
	var next int
	if interval <= 1 {
		next = sm.FirstInterval
	} else {
		next = int(math.Round(float64(interval) * ef))
	}

	if sm.MaxInterval > 0 && next > sm.MaxInterval {
		next = sm.MaxInterval
	}
	if next < 1 {
		next = 1
	}
	return next
}

// classifyStage is only consulted after a correct answer; a word below the
// review interval keeps its current stage.
func (sm *SM2) classifyStage(p models.WordProgress) models.Stage {
	switch {
	case p.Interval >= sm.MasteredInterval && p.CorrectCount >= sm.MasteredCorrect:
		return models.StageMastered
	case p.Interval >= sm.ReviewInterval:
		return models.StageReview
	default:
		return p.Stage
	}
}

// MasteryLevel blends accuracy (percent) with a consistency bonus of two
// points per correct answer, capped at 20
func MasteryLevel(accuracy float64, correctCount int) int {
	bonus := correctCount * 2
	if bonus > 20 {
		bonus = 20
	}
	level := int(math.Round(accuracy + float64(bonus)))
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}

// ClassifyDifficulty maps cumulative accuracy (percent) to a difficulty
func ClassifyDifficulty(accuracy float64) models.Difficulty {
	switch {
	case accuracy >= 90:
		return models.DifficultyEasy
	case accuracy >= 70:
		return models.DifficultyMedium
	default:
		return models.DifficultyHard
	}
}
