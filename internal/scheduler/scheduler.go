package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/wordbank/internal/spaced_repetition"
	"github.com/example/wordbank/pkg/models"
	"github.com/go-co-op/gocron"
)

// Константы для настроек уведомлений по умолчанию
const (
	DefaultNotificationStartHour = 8  // Время начала уведомлений (8:00)
	DefaultNotificationEndHour   = 22 // Время окончания уведомлений (22:00)
	DefaultReminderInterval      = time.Hour
)

// WordSource loads the word bank
type WordSource interface {
	GetAll(ctx context.Context) ([]models.Word, error)
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(count int) error
}

// Options configures the reminder job. A zero Interval, Location or Clock
// selects the default.
type Options struct {
	Interval  time.Duration
	StartHour int
	EndHour   int
	Location  *time.Location // Time zone of the notification hours
	Clock     func() time.Time
}

// DefaultOptions returns the default reminder settings
func DefaultOptions() Options {
	return Options{
		Interval:  DefaultReminderInterval,
		StartHour: DefaultNotificationStartHour,
		EndHour:   DefaultNotificationEndHour,
	}
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	words     WordSource
	notifier  Notifier
	opts      Options
}

// New creates a new scheduler instance
func New(words WordSource, notifier Notifier, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultReminderInterval
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		words:     words,
		notifier:  notifier,
		opts:      opts,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.opts.Interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := s.CheckAndSendReminders(ctx); err != nil {
			log.Printf("Error sending reminder: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// CheckAndSendReminders sends a reminder when words are due and the current
// hour is within notification hours. It returns the number of due words
// reported.
func (s *Scheduler) CheckAndSendReminders(ctx context.Context) (int, error) {
	currentHour := s.opts.Clock().In(s.opts.Location).Hour()
	if !InNotificationWindow(currentHour, s.opts.StartHour, s.opts.EndHour) {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, s.opts.StartHour, s.opts.EndHour)
		return 0, nil
	}
	return s.RunManualCheck(ctx)
}

// RunManualCheck counts due words and notifies regardless of the hour
func (s *Scheduler) RunManualCheck(ctx context.Context) (int, error) {
	words, err := s.words.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load words: %w", err)
	}

	count := len(spaced_repetition.GetWordsForReview(words, s.opts.Clock()))
	if count == 0 {
		return 0, nil
	}

	if err := s.notifier.SendReminder(count); err != nil {
		return 0, fmt.Errorf("failed to send reminder: %w", err)
	}
	return count, nil
}

// InNotificationWindow reports whether hour lies in [start, end]. A window
// with start after end wraps around midnight.
func InNotificationWindow(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}
