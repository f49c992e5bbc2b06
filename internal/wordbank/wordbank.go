package wordbank

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/example/wordbank/internal/dictionary"
	"github.com/example/wordbank/pkg/models"
)

// ErrEmptyWord is returned when a word is blank after trimming
var ErrEmptyWord = errors.New("word must not be empty")

// Store persists the word bank
type Store interface {
	GetAll(ctx context.Context) ([]models.Word, error)
	GetByWord(ctx context.Context, word string) (*models.Word, error)
	Save(ctx context.Context, word *models.Word) error
	SetNote(ctx context.Context, word, note string) error
	SetFavorite(ctx context.Context, word string, favorite bool) error
	Delete(ctx context.Context, word string) error
	DeleteAll(ctx context.Context) error
}

// Dictionary looks up word definitions
type Dictionary interface {
	Lookup(ctx context.Context, word string) (*dictionary.Entry, error)
}

// Service manages the saved words
type Service struct {
	store Store
	dict  Dictionary
	now   func() time.Time
}

// NewService creates a word bank service. dict may be nil, in which case
// words are saved without definitions.
func NewService(store Store, dict Dictionary, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, dict: dict, now: now}
}

// AddWordRequest describes a word to save and where it was found
type AddWordRequest struct {
	Word      string
	URL       string
	PageTitle string
	Category  string
	Note      string
	Tags      []string
}

// AddWord looks the word up and saves it. When the lookup fails the word is
// saved anyway, without definitions.
func (s *Service) AddWord(ctx context.Context, r AddWordRequest) (*models.Word, error) {
	text := models.NormalizeWord(r.Word)
	if text == "" {
		return nil, ErrEmptyWord
	}

	word := &models.Word{
		Word:         text,
		Category:     strings.ToLower(strings.TrimSpace(r.Category)),
		Timestamp:    s.now().UnixMilli(),
		URL:          r.URL,
		PageTitle:    r.PageTitle,
		PersonalNote: r.Note,
		Tags:         r.Tags,
	}

	if s.dict != nil {
		entry, err := s.dict.Lookup(ctx, text)
		if err != nil {
			log.Printf("Lookup of %q failed, saving without definitions: %v", text, err)
		} else {
			word.Definitions = entry.Definitions
			word.Pronunciation = entry.Pronunciation
		}
	}

	if err := s.store.Save(ctx, word); err != nil {
		return nil, err
	}
	return word, nil
}

// SortOrder orders listed words
type SortOrder string

const (
	SortRecent       SortOrder = "recent"
	SortAlphabetical SortOrder = "alphabetical"
)

// ListOptions filters and sorts the word list
type ListOptions struct {
	Search        string
	Category      string
	Sort          SortOrder
	FavoritesOnly bool
}

// List returns the saved words matching opts
func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.Word, error) {
	words, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(words, opts), nil
}

// SetNote replaces the personal note of a word. An empty note clears it.
func (s *Service) SetNote(ctx context.Context, word, note string) error {
	return s.store.SetNote(ctx, word, strings.TrimSpace(note))
}

// ToggleFavorite flips the favorite flag of a word and returns the new value
func (s *Service) ToggleFavorite(ctx context.Context, word string) (bool, error) {
	w, err := s.store.GetByWord(ctx, word)
	if err != nil {
		return false, err
	}
	favorite := !w.IsFavorite
	if err := s.store.SetFavorite(ctx, w.Word, favorite); err != nil {
		return false, err
	}
	return favorite, nil
}

// Categories returns the distinct categories of the saved words
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	words, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return Categories(words), nil
}

// AddedThisWeek counts words saved during the last seven days
func (s *Service) AddedThisWeek(ctx context.Context) (int, error) {
	words, err := s.store.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	return AddedSince(words, s.now().AddDate(0, 0, -7)), nil
}

// Delete removes a single word
func (s *Service) Delete(ctx context.Context, word string) error {
	return s.store.Delete(ctx, word)
}

// Clear removes every word from the bank
func (s *Service) Clear(ctx context.Context) error {
	return s.store.DeleteAll(ctx)
}

// Filter applies search, category and favorite filters and sorts the result.
// The input slice is not modified.
func Filter(words []models.Word, opts ListOptions) []models.Word {
	term := strings.ToLower(strings.TrimSpace(opts.Search))
	category := strings.ToLower(strings.TrimSpace(opts.Category))

	result := make([]models.Word, 0, len(words))
	for _, w := range words {
		if opts.FavoritesOnly && !w.IsFavorite {
			continue
		}
		if category != "" && w.EffectiveCategory() != category {
			continue
		}
		if term != "" && !matches(w, term) {
			continue
		}
		result = append(result, w)
	}

	if opts.Sort == SortAlphabetical {
		sort.SliceStable(result, func(i, j int) bool {
			return strings.ToLower(result[i].Word) < strings.ToLower(result[j].Word)
		})
	} else {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Timestamp > result[j].Timestamp
		})
	}
	return result
}

// matches searches the word, its definitions and parts of speech
func matches(w models.Word, term string) bool {
	if strings.Contains(strings.ToLower(w.Word), term) {
		return true
	}
	for _, def := range w.Definitions {
		if strings.Contains(strings.ToLower(def.Definition), term) ||
			strings.Contains(strings.ToLower(def.PartOfSpeech), term) {
			return true
		}
	}
	return false
}

// Categories returns the distinct effective categories, sorted
func Categories(words []models.Word) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, w := range words {
		c := w.EffectiveCategory()
		if !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)
	return categories
}

// AddedSince counts words saved after since
func AddedSince(words []models.Word, since time.Time) int {
	cutoff := since.UnixMilli()
	count := 0
	for _, w := range words {
		if w.Timestamp > cutoff {
			count++
		}
	}
	return count
}
