package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/example/wordbank/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ErrWordNotFound is returned when the word is not in the word bank
var ErrWordNotFound = errors.New("word not found")

// WordRepository handles database operations for the word bank
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

const selectWords = `
	SELECT w.id, w.word, w.definitions, w.category, w.saved_at, w.url, w.page_title,
		w.personal_note, w.is_favorite, w.tags, w.pronunciation,
		p.word_id AS progress_word_id, p.correct_count, p.incorrect_count, p.total_reviews,
		p.last_reviewed, p.next_review, p.interval_days, p.ease_factor, p.stage,
		p.difficulty, p.mastery_level
	FROM words w
	LEFT JOIN word_progress p ON p.word_id = w.id
`

// wordRow is a words row joined with its optional progress
type wordRow struct {
	ID            int64  `db:"id"`
	Word          string `db:"word"`
	Definitions   string `db:"definitions"`
	Category      string `db:"category"`
	SavedAt       int64  `db:"saved_at"`
	URL           string `db:"url"`
	PageTitle     string `db:"page_title"`
	PersonalNote  string `db:"personal_note"`
	IsFavorite    bool   `db:"is_favorite"`
	Tags          string `db:"tags"`
	Pronunciation string `db:"pronunciation"`

	ProgressWordID sql.NullInt64   `db:"progress_word_id"`
	CorrectCount   sql.NullInt64   `db:"correct_count"`
	IncorrectCount sql.NullInt64   `db:"incorrect_count"`
	TotalReviews   sql.NullInt64   `db:"total_reviews"`
	LastReviewed   sql.NullInt64   `db:"last_reviewed"`
	NextReview     sql.NullInt64   `db:"next_review"`
	IntervalDays   sql.NullInt64   `db:"interval_days"`
	EaseFactor     sql.NullFloat64 `db:"ease_factor"`
	Stage          sql.NullString  `db:"stage"`
	Difficulty     sql.NullString  `db:"difficulty"`
	MasteryLevel   sql.NullInt64   `db:"mastery_level"`
}

func (r wordRow) toModel() (models.Word, error) {
	w := models.Word{
		ID:            r.ID,
		Word:          r.Word,
		Category:      r.Category,
		Timestamp:     r.SavedAt,
		URL:           r.URL,
		PageTitle:     r.PageTitle,
		PersonalNote:  r.PersonalNote,
		IsFavorite:    r.IsFavorite,
		Pronunciation: r.Pronunciation,
	}

	if err := json.Unmarshal([]byte(r.Definitions), &w.Definitions); err != nil {
		return w, fmt.Errorf("failed to decode definitions of %q: %w", r.Word, err)
	}
	if err := json.Unmarshal([]byte(r.Tags), &w.Tags); err != nil {
		return w, fmt.Errorf("failed to decode tags of %q: %w", r.Word, err)
	}

	if r.ProgressWordID.Valid {
		w.Progress = &models.WordProgress{
			CorrectCount:   int(r.CorrectCount.Int64),
			IncorrectCount: int(r.IncorrectCount.Int64),
			TotalReviews:   int(r.TotalReviews.Int64),
			LastReviewed:   r.LastReviewed.Int64,
			NextReview:     r.NextReview.Int64,
			Interval:       int(r.IntervalDays.Int64),
			EaseFactor:     r.EaseFactor.Float64,
			Stage:          models.Stage(r.Stage.String),
			Difficulty:     models.Difficulty(r.Difficulty.String),
			MasteryLevel:   int(r.MasteryLevel.Int64),
		}
	}
	return w, nil
}

// GetAll returns all words in the order they were saved
func (r *WordRepository) GetAll(ctx context.Context) ([]models.Word, error) {
	var rows []wordRow
	if err := r.db.SelectContext(ctx, &rows, selectWords+" ORDER BY w.id"); err != nil {
		return nil, fmt.Errorf("failed to get words: %w", err)
	}

	words := make([]models.Word, 0, len(rows))
	for _, row := range rows {
		w, err := row.toModel()
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}

// GetByWord returns a single word
func (r *WordRepository) GetByWord(ctx context.Context, word string) (*models.Word, error) {
	var row wordRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(selectWords+" WHERE w.word = ?"), models.NormalizeWord(word))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrWordNotFound, word)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word: %w", err)
	}

	w, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Save inserts the word or updates its metadata when it already exists.
// Empty fields of an existing word keep their stored values and a favorite
// stays a favorite; use SetNote and SetFavorite to clear them. Stored
// progress is only replaced when word.Progress is set.
func (r *WordRepository) Save(ctx context.Context, word *models.Word) error {
	word.Word = models.NormalizeWord(word.Word)
	if word.Word == "" {
		return errors.New("word must be non-empty")
	}

	definitions := word.Definitions
	if definitions == nil {
		definitions = []models.Definition{}
	}
	defJSON, err := json.Marshal(definitions)
	if err != nil {
		return fmt.Errorf("failed to encode definitions: %w", err)
	}

	tags := word.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`
		INSERT INTO words (word, definitions, category, saved_at, url, page_title,
			personal_note, is_favorite, tags, pronunciation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (word) DO UPDATE SET
			definitions = COALESCE(NULLIF(excluded.definitions, '[]'), words.definitions),
			category = COALESCE(NULLIF(excluded.category, ''), words.category),
			url = COALESCE(NULLIF(excluded.url, ''), words.url),
			page_title = COALESCE(NULLIF(excluded.page_title, ''), words.page_title),
			personal_note = COALESCE(NULLIF(excluded.personal_note, ''), words.personal_note),
			is_favorite = (words.is_favorite OR excluded.is_favorite),
			tags = COALESCE(NULLIF(excluded.tags, '[]'), words.tags),
			pronunciation = COALESCE(NULLIF(excluded.pronunciation, ''), words.pronunciation)
		RETURNING id, saved_at
	`)
	err = tx.QueryRowxContext(ctx, query,
		word.Word,
		string(defJSON),
		word.Category,
		word.Timestamp,
		word.URL,
		word.PageTitle,
		word.PersonalNote,
		word.IsFavorite,
		string(tagsJSON),
		word.Pronunciation,
	).Scan(&word.ID, &word.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save word: %w", err)
	}

	if word.Progress != nil {
		if err := saveProgress(ctx, tx, word.ID, *word.Progress); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SetNote replaces the personal note of a word
func (r *WordRepository) SetNote(ctx context.Context, word, note string) error {
	return r.updateWord(ctx, "personal_note", note, word)
}

// SetFavorite marks or unmarks a word as favorite
func (r *WordRepository) SetFavorite(ctx context.Context, word string, favorite bool) error {
	return r.updateWord(ctx, "is_favorite", favorite, word)
}

// updateWord sets a single column of a word; column is never user input
func (r *WordRepository) updateWord(ctx context.Context, column string, value interface{}, word string) error {
	query := r.db.Rebind("UPDATE words SET " + column + " = ? WHERE word = ?")
	result, err := r.db.ExecContext(ctx, query, value, models.NormalizeWord(word))
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrWordNotFound, word)
	}
	return nil
}

// progressRow binds a progress record to its word for named queries
type progressRow struct {
	WordID int64 `db:"word_id"`
	models.WordProgress
}

// SaveProgress creates or replaces the progress of a word
func (r *WordRepository) SaveProgress(ctx context.Context, wordID int64, progress models.WordProgress) error {
	return saveProgress(ctx, r.db, wordID, progress)
}

func saveProgress(ctx context.Context, db sqlx.ExtContext, wordID int64, progress models.WordProgress) error {
	query := `
		INSERT INTO word_progress (
			word_id, correct_count, incorrect_count, total_reviews, last_reviewed,
			next_review, interval_days, ease_factor, stage, difficulty, mastery_level
		) VALUES (
			:word_id, :correct_count, :incorrect_count, :total_reviews, :last_reviewed,
			:next_review, :interval_days, :ease_factor, :stage, :difficulty, :mastery_level
		)
		ON CONFLICT (word_id) DO UPDATE SET
			correct_count = excluded.correct_count,
			incorrect_count = excluded.incorrect_count,
			total_reviews = excluded.total_reviews,
			last_reviewed = excluded.last_reviewed,
			next_review = excluded.next_review,
			interval_days = excluded.interval_days,
			ease_factor = excluded.ease_factor,
			stage = excluded.stage,
			difficulty = excluded.difficulty,
			mastery_level = excluded.mastery_level
	`
	_, err := sqlx.NamedExecContext(ctx, db, query, progressRow{WordID: wordID, WordProgress: progress})
	if err != nil {
		if isForeignKeyErr(err) {
			return fmt.Errorf("%w: id %d", ErrWordNotFound, wordID)
		}
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// Delete removes a word together with its progress
func (r *WordRepository) Delete(ctx context.Context, word string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM words WHERE word = ?"), models.NormalizeWord(word))
	if err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrWordNotFound, word)
	}
	return nil
}

// DeleteAll clears the word bank
func (r *WordRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM words"); err != nil {
		return fmt.Errorf("failed to clear word bank: %w", err)
	}
	return nil
}

// isForeignKeyErr reports a foreign key violation for both supported drivers
func isForeignKeyErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key")
}
