package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/wordbank/internal/spaced_repetition"
	"github.com/example/wordbank/pkg/models"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("review session not found")
	ErrSessionFinished = errors.New("review session is finished")
	ErrNothingToReview = errors.New("nothing to review")
	ErrAlreadyAnswered = errors.New("card already answered")
)

// DashboardNewWordsLimit is how many new words the dashboard lists
const DashboardNewWordsLimit = 10

// Store is the part of the word store the review flow needs
type Store interface {
	GetAll(ctx context.Context) ([]models.Word, error)
	GetByWord(ctx context.Context, word string) (*models.Word, error)
	SaveProgress(ctx context.Context, wordID int64, progress models.WordProgress) error
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	SM2                *spaced_repetition.SM2
	NewWordsPerSession int // zero → spaced_repetition.DefaultNewWordsLimit
	SessionSize        int // zero → unlimited
	Clock              func() time.Time
}

// Service runs review sessions against a word store
type Service struct {
	store              Store
	sm2                *spaced_repetition.SM2
	now                func() time.Time
	newWordsPerSession int
	sessionSize        int

	// mu serializes session state and read-modify-write of progress
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService creates a review service
func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:              store,
		sm2:                opts.SM2,
		now:                opts.Clock,
		newWordsPerSession: opts.NewWordsPerSession,
		sessionSize:        opts.SessionSize,
		sessions:           make(map[string]*Session),
	}
	if s.sm2 == nil {
		s.sm2 = spaced_repetition.NewSM2()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newWordsPerSession <= 0 {
		s.newWordsPerSession = spaced_repetition.DefaultNewWordsLimit
	}
	return s
}

// Dashboard summarizes what is due, what is new and overall progress
type Dashboard struct {
	Due             []models.Word
	New             []models.Word
	DueByDifficulty map[models.Difficulty]int
	Stats           models.LearningStats
}

// Dashboard loads the word bank and computes the dashboard view
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	words, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load words: %w", err)
	}

	due := spaced_repetition.GetWordsForReview(words, s.now())
	return &Dashboard{
		Due:             due,
		New:             spaced_repetition.GetNewWordsForLearning(words, DashboardNewWordsLimit),
		DueByDifficulty: spaced_repetition.CountDueByDifficulty(due),
		Stats:           spaced_repetition.CalculateLearningStats(words),
	}, nil
}

// StartSession builds a session from the current word bank
func (s *Service) StartSession(ctx context.Context, mode Mode) (Session, error) {
	words, err := s.store.GetAll(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("failed to load words: %w", err)
	}

	now := s.now()
	var cards []models.Word
	switch mode {
	case ModeReview:
		cards = spaced_repetition.GetWordsForReview(words, now)
		if s.sessionSize > 0 && len(cards) > s.sessionSize {
			cards = cards[:s.sessionSize]
		}
	case ModeLearn:
		cards = spaced_repetition.GetNewWordsForLearning(words, s.newWordsPerSession)
	default:
		return Session{}, fmt.Errorf("unknown session mode %q", mode)
	}

	if len(cards) == 0 {
		return Session{}, ErrNothingToReview
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		Cards:     cards,
		StartedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return *sess, nil
}

// Session returns a snapshot of a running session
func (s *Service) Session(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return *sess, nil
}

// Answer rates the current card of a session and persists the new progress.
// The word is re-read from the store so that concurrent sessions do not
// overwrite each other's updates.
func (s *Service) Answer(ctx context.Context, sessionID string, quality int) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.answer(ctx, sess, quality)
}

// AnswerAt rates the card at position only if it is still the current card.
// A repeated or stale rating returns ErrAlreadyAnswered and changes nothing.
func (s *Service) AnswerAt(ctx context.Context, sessionID string, position, quality int) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if position != sess.Position {
		return nil, ErrAlreadyAnswered
	}
	return s.answer(ctx, sess, quality)
}

func (s *Service) answer(ctx context.Context, sess *Session, quality int) (*Result, error) {
	card, ok := sess.Current()
	if !ok {
		return nil, ErrSessionFinished
	}

	word, q, updated, err := s.rate(ctx, card.Word, quality)
	if err != nil {
		return nil, err
	}

	correct := int(q) >= s.sm2.PassThreshold
	if correct {
		sess.Correct++
	} else {
		sess.Incorrect++
	}
	sess.Position++

	return &Result{
		Word:     word.Word,
		Quality:  q,
		Correct:  correct,
		Progress: updated,
		Session:  *sess,
	}, nil
}

// Rate applies a rating outside of any session, e.g. from a quiz answer
func (s *Service) Rate(ctx context.Context, word string, quality int) (models.WordProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _, updated, err := s.rate(ctx, word, quality)
	return updated, err
}

// rate runs the read-modify-write of one rating. Callers hold s.mu.
func (s *Service) rate(ctx context.Context, text string, quality int) (*models.Word, spaced_repetition.QualityResponse, models.WordProgress, error) {
	word, err := s.store.GetByWord(ctx, text)
	if err != nil {
		return nil, 0, models.WordProgress{}, fmt.Errorf("failed to load %q: %w", text, err)
	}

	now := s.now()
	progress := s.sm2.Initialize(now)
	if word.Progress != nil {
		progress = *word.Progress
	}

	q := spaced_repetition.ClampQuality(quality)
	updated := s.sm2.Process(progress, q, now)
	if err := s.store.SaveProgress(ctx, word.ID, updated); err != nil {
		return nil, 0, models.WordProgress{}, fmt.Errorf("failed to save progress of %q: %w", text, err)
	}
	return word, q, updated, nil
}

// Skip moves past the current card without rating it
func (s *Service) Skip(sessionID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if sess.Done() {
		return *sess, ErrSessionFinished
	}
	sess.Position++
	return *sess, nil
}

// Finish ends a session and reports its results
func (s *Service) Finish(sessionID string) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Summary{}, ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return summarize(sess, s.now()), nil
}
