package review

import (
	"time"

	"github.com/example/wordbank/internal/spaced_repetition"
	"github.com/example/wordbank/pkg/models"
)

// Mode selects which words a session presents
type Mode string

const (
	// ModeReview presents words that are due, most urgent first
	ModeReview Mode = "review"
	// ModeLearn presents words that were never reviewed
	ModeLearn Mode = "learn"
)

// Session is a snapshot of a review session
type Session struct {
	ID        string
	Mode      Mode
	Cards     []models.Word
	Position  int
	Correct   int
	Incorrect int
	StartedAt time.Time
}

// Current returns the card awaiting an answer
func (s Session) Current() (models.Word, bool) {
	if s.Done() {
		return models.Word{}, false
	}
	return s.Cards[s.Position], true
}

// Done reports whether every card was answered or skipped
func (s Session) Done() bool {
	return s.Position >= len(s.Cards)
}

// Remaining returns the number of cards left, including the current one
func (s Session) Remaining() int {
	if s.Done() {
		return 0
	}
	return len(s.Cards) - s.Position
}

// Result describes the outcome of one answer
type Result struct {
	Word     string
	Quality  spaced_repetition.QualityResponse
	Correct  bool
	Progress models.WordProgress
	Session  Session
}

// Summary is reported when a session ends
type Summary struct {
	SessionID string
	Mode      Mode
	Reviewed  int
	Correct   int
	Incorrect int
	Accuracy  int // percent
	Duration  time.Duration
}

func summarize(s *Session, now time.Time) Summary {
	sum := Summary{
		SessionID: s.ID,
		Mode:      s.Mode,
		Reviewed:  s.Correct + s.Incorrect,
		Correct:   s.Correct,
		Incorrect: s.Incorrect,
		Duration:  now.Sub(s.StartedAt),
	}
	if sum.Reviewed > 0 {
		sum.Accuracy = (sum.Correct*100 + sum.Reviewed/2) / sum.Reviewed
	}
	return sum
}
