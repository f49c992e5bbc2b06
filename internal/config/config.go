package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/example/wordbank/internal/scheduler"
	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the word bank
type Config struct {
	DBType      string // sqlite or postgres
	DBPath      string // SQLite database file
	DatabaseURL string // PostgreSQL DSN

	TelegramToken string
	OwnerChatIDs  []int64

	DictionaryURL string

	NewWordsPerSession int
	ReviewSessionSize  int
	MaxIntervalDays    int
	QuizSize           int

	SchedulerEnabled      bool
	ReminderInterval      time.Duration
	NotificationStartHour int
	NotificationEndHour   int
}

// Load reads configuration from the environment. Variables from the given
// .env files are loaded first; missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		DBType:      String("DB_TYPE", "sqlite"),
		DBPath:      String("DB_PATH", "data/wordbank.db"),
		DatabaseURL: String("DATABASE_URL", ""),

		TelegramToken: String("TELEGRAM_BOT_TOKEN", ""),
		OwnerChatIDs:  Int64List("OWNER_CHAT_IDS"),

		DictionaryURL: String("DICTIONARY_API_URL", "https://api.dictionaryapi.dev"),

		NewWordsPerSession: Int("NEW_WORDS_PER_SESSION", 5),
		ReviewSessionSize:  Int("REVIEW_SESSION_SIZE", 20),
		MaxIntervalDays:    Int("SRS_MAX_INTERVAL_DAYS", 0),
		QuizSize:           Int("QUIZ_SIZE", 5),

		SchedulerEnabled:      Bool("ENABLE_SCHEDULER", true),
		ReminderInterval:      Duration("REMINDER_INTERVAL", scheduler.DefaultReminderInterval),
		NotificationStartHour: Int("NOTIFICATION_START_HOUR", scheduler.DefaultNotificationStartHour),
		NotificationEndHour:   Int("NOTIFICATION_END_HOUR", scheduler.DefaultNotificationEndHour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted silently
func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when DB_TYPE=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}

	if c.NewWordsPerSession < 0 || c.ReviewSessionSize < 0 || c.MaxIntervalDays < 0 || c.QuizSize < 0 {
		return errors.New("session sizes and max interval must not be negative")
	}
	if !validHour(c.NotificationStartHour) || !validHour(c.NotificationEndHour) {
		return fmt.Errorf("notification hours must be within 0-23, got %d-%d",
			c.NotificationStartHour, c.NotificationEndHour)
	}
	if c.ReminderInterval <= 0 {
		return errors.New("REMINDER_INTERVAL must be positive")
	}
	return nil
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}
