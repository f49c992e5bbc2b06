package wordbank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/wordbank/internal/dictionary"
	"github.com/example/wordbank/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type mockStore struct {
	GetAllFunc      func(ctx context.Context) ([]models.Word, error)
	GetByWordFunc   func(ctx context.Context, word string) (*models.Word, error)
	SaveFunc        func(ctx context.Context, word *models.Word) error
	SetNoteFunc     func(ctx context.Context, word, note string) error
	SetFavoriteFunc func(ctx context.Context, word string, favorite bool) error
	DeleteFunc      func(ctx context.Context, word string) error
	DeleteAllFunc   func(ctx context.Context) error
}

func (m *mockStore) GetAll(ctx context.Context) ([]models.Word, error) {
	return m.GetAllFunc(ctx)
}

func (m *mockStore) GetByWord(ctx context.Context, word string) (*models.Word, error) {
	return m.GetByWordFunc(ctx, word)
}

func (m *mockStore) Save(ctx context.Context, word *models.Word) error {
	return m.SaveFunc(ctx, word)
}

func (m *mockStore) SetNote(ctx context.Context, word, note string) error {
	return m.SetNoteFunc(ctx, word, note)
}

func (m *mockStore) SetFavorite(ctx context.Context, word string, favorite bool) error {
	return m.SetFavoriteFunc(ctx, word, favorite)
}

func (m *mockStore) Delete(ctx context.Context, word string) error {
	return m.DeleteFunc(ctx, word)
}

func (m *mockStore) DeleteAll(ctx context.Context) error {
	return m.DeleteAllFunc(ctx)
}

type mockDictionary struct {
	LookupFunc func(ctx context.Context, word string) (*dictionary.Entry, error)
}

func (m *mockDictionary) Lookup(ctx context.Context, word string) (*dictionary.Entry, error) {
	return m.LookupFunc(ctx, word)
}

func fixedClock() time.Time { return t0 }

func TestAddWord(t *testing.T) {
	var saved *models.Word
	store := &mockStore{SaveFunc: func(ctx context.Context, w *models.Word) error {
		saved = w
		return nil
	}}
	dict := &mockDictionary{LookupFunc: func(ctx context.Context, word string) (*dictionary.Entry, error) {
		assert.Equal(t, "quixotic", word)
		return &dictionary.Entry{
			Word:          word,
			Pronunciation: "/kwɪkˈsɒtɪk/",
			Definitions:   []models.Definition{{PartOfSpeech: "adjective", Definition: "Idealistic."}},
		}, nil
	}}

	w, err := NewService(store, dict, fixedClock).AddWord(context.Background(), AddWordRequest{
		Word:      " Quixotic ",
		URL:       "https://example.com",
		PageTitle: "Don Quixote",
		Category:  " Adjective",
	})
	require.NoError(t, err)

	assert.Same(t, saved, w)
	assert.Equal(t, "quixotic", w.Word)
	assert.Equal(t, "adjective", w.Category)
	assert.Equal(t, t0.UnixMilli(), w.Timestamp)
	assert.Equal(t, "/kwɪkˈsɒtɪk/", w.Pronunciation)
	assert.Len(t, w.Definitions, 1)
	assert.Nil(t, w.Progress)
}

func TestAddWordLookupFailureSavesAnyway(t *testing.T) {
	store := &mockStore{SaveFunc: func(ctx context.Context, w *models.Word) error { return nil }}
	dict := &mockDictionary{LookupFunc: func(ctx context.Context, word string) (*dictionary.Entry, error) {
		return nil, dictionary.ErrNotFound
	}}

	w, err := NewService(store, dict, fixedClock).AddWord(context.Background(), AddWordRequest{Word: "blorp"})
	require.NoError(t, err)
	assert.Empty(t, w.Definitions)
}

func TestAddWordWithoutDictionary(t *testing.T) {
	store := &mockStore{SaveFunc: func(ctx context.Context, w *models.Word) error { return nil }}

	w, err := NewService(store, nil, fixedClock).AddWord(context.Background(), AddWordRequest{Word: "plain"})
	require.NoError(t, err)
	assert.Equal(t, "plain", w.Word)
}

func TestAddWordErrors(t *testing.T) {
	storeErr := errors.New("disk full")
	store := &mockStore{SaveFunc: func(ctx context.Context, w *models.Word) error { return storeErr }}
	svc := NewService(store, nil, fixedClock)

	_, err := svc.AddWord(context.Background(), AddWordRequest{Word: "   "})
	assert.ErrorIs(t, err, ErrEmptyWord)

	_, err = svc.AddWord(context.Background(), AddWordRequest{Word: "word"})
	assert.ErrorIs(t, err, storeErr)
}

func bank() []models.Word {
	return []models.Word{
		{Word: "cat", Timestamp: 300, Definitions: []models.Definition{{PartOfSpeech: "noun", Definition: "A small domesticated feline."}}},
		{Word: "run", Timestamp: 100, IsFavorite: true, Definitions: []models.Definition{{PartOfSpeech: "verb", Definition: "Move swiftly on foot."}}},
		{Word: "blue", Timestamp: 200, Category: "Colour"},
		{Word: "Apple", Timestamp: 400, Definitions: []models.Definition{{PartOfSpeech: "noun", Definition: "A round fruit."}}},
	}
}

func names(words []models.Word) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, w.Word)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"recent by default", ListOptions{}, []string{"Apple", "cat", "blue", "run"}},
		{"alphabetical", ListOptions{Sort: SortAlphabetical}, []string{"Apple", "blue", "cat", "run"}},
		{"search word", ListOptions{Search: "RUN"}, []string{"run"}},
		{"search definition", ListOptions{Search: "feline"}, []string{"cat"}},
		{"search part of speech", ListOptions{Search: "noun"}, []string{"Apple", "cat"}},
		{"category from part of speech", ListOptions{Category: "Noun", Sort: SortAlphabetical}, []string{"Apple", "cat"}},
		{"explicit category", ListOptions{Category: "colour"}, []string{"blue"}},
		{"favorites", ListOptions{FavoritesOnly: true}, []string{"run"}},
		{"no match", ListOptions{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words := bank()
			assert.Equal(t, tt.want, names(Filter(words, tt.opts)))
			assert.Equal(t, names(bank()), names(words))
		})
	}
}

func TestList(t *testing.T) {
	store := &mockStore{GetAllFunc: func(ctx context.Context) ([]models.Word, error) { return bank(), nil }}

	words, err := NewService(store, nil, fixedClock).List(context.Background(), ListOptions{Sort: SortAlphabetical})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "blue", "cat", "run"}, names(words))
}

func TestDeleteAndClear(t *testing.T) {
	var deleted string
	cleared := false
	store := &mockStore{
		DeleteFunc:    func(ctx context.Context, word string) error { deleted = word; return nil },
		DeleteAllFunc: func(ctx context.Context) error { cleared = true; return nil },
	}
	svc := NewService(store, nil, fixedClock)

	require.NoError(t, svc.Delete(context.Background(), "cat"))
	require.NoError(t, svc.Clear(context.Background()))
	assert.Equal(t, "cat", deleted)
	assert.True(t, cleared)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"colour", "noun", "verb"}, Categories(bank()))
	assert.Empty(t, Categories(nil))
}

func TestAddedSince(t *testing.T) {
	assert.Equal(t, 2, AddedSince(bank(), time.UnixMilli(200)))
	assert.Equal(t, 0, AddedSince(nil, t0))
}

func TestSetNote(t *testing.T) {
	var gotWord, gotNote string
	store := &mockStore{SetNoteFunc: func(ctx context.Context, word, note string) error {
		gotWord, gotNote = word, note
		return nil
	}}

	require.NoError(t, NewService(store, nil, fixedClock).SetNote(context.Background(), "cat", "  seen in a poem "))
	assert.Equal(t, "cat", gotWord)
	assert.Equal(t, "seen in a poem", gotNote)
}

func TestToggleFavorite(t *testing.T) {
	var stored *bool
	store := &mockStore{
		GetByWordFunc: func(ctx context.Context, word string) (*models.Word, error) {
			return &models.Word{Word: "run", IsFavorite: true}, nil
		},
		SetFavoriteFunc: func(ctx context.Context, word string, favorite bool) error {
			stored = &favorite
			return nil
		},
	}

	favorite, err := NewService(store, nil, fixedClock).ToggleFavorite(context.Background(), "RUN")
	require.NoError(t, err)
	assert.False(t, favorite)
	require.NotNil(t, stored)
	assert.False(t, *stored)
}

func TestToggleFavoriteUnknownWord(t *testing.T) {
	notFound := errors.New("word not found")
	store := &mockStore{GetByWordFunc: func(ctx context.Context, word string) (*models.Word, error) {
		return nil, notFound
	}}

	_, err := NewService(store, nil, fixedClock).ToggleFavorite(context.Background(), "zzz")
	assert.ErrorIs(t, err, notFound)
}

func TestServiceCategoriesAndAddedThisWeek(t *testing.T) {
	day := 24 * time.Hour
	words := []models.Word{
		{Word: "fresh", Timestamp: t0.Add(-day).UnixMilli(), Category: "travel"},
		{Word: "older", Timestamp: t0.Add(-6 * day).UnixMilli()},
		{Word: "stale", Timestamp: t0.Add(-8 * day).UnixMilli(), Category: "travel"},
	}
	store := &mockStore{GetAllFunc: func(ctx context.Context) ([]models.Word, error) { return words, nil }}
	svc := NewService(store, nil, fixedClock)

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "travel"}, categories)

	count, err := svc.AddedThisWeek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
