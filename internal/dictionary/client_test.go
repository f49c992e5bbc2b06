package dictionary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/wordbank/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serendipityJSON = `[{
	"word": "serendipity",
	"phonetic": "/ˌsɛɹənˈdɪpɪti/",
	"meanings": [
		{"partOfSpeech": "noun", "definitions": [
			{"definition": "A combination of events which have come together by chance.", "example": "a fortunate stroke of serendipity"},
			{"definition": "Second sense."}
		]},
		{"partOfSpeech": "verb", "definitions": []},
		{"partOfSpeech": "adjective", "definitions": [
			{"definition": "Third.", "example": "a serendipity moment"},
			{"definition": "Fourth."},
			{"definition": "Fifth."}
		]},
		{"partOfSpeech": "adverb", "definitions": [{"definition": "Dropped."}]}
	]
}]`

func TestLookupKeepsDefinitionsAcrossMeanings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/entries/en/serendipity", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(serendipityJSON))
	}))
	defer srv.Close()

	entry, err := New(srv.URL+"/").Lookup(context.Background(), " serendipity ")
	require.NoError(t, err)

	assert.Equal(t, "serendipity", entry.Word)
	assert.Equal(t, "/ˌsɛɹənˈdɪpɪti/", entry.Pronunciation)
	assert.Equal(t, []models.Definition{
		{PartOfSpeech: "noun", Definition: "A combination of events which have come together by chance.", Example: "a fortunate stroke of serendipity"},
		{PartOfSpeech: "noun", Definition: "Second sense."},
		{PartOfSpeech: "adjective", Definition: "Third.", Example: "a serendipity moment"},
		{PartOfSpeech: "adjective", Definition: "Fourth."},
		{PartOfSpeech: "adjective", Definition: "Fifth."},
	}, entry.Definitions)
	assert.Len(t, entry.Definitions, MaxDefinitions)
}

func TestLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"title":"No Definitions Found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Lookup(context.Background(), "asdfgh")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Lookup(context.Background(), "word")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLookupEmptyWord(t *testing.T) {
	_, err := New("http://unused").Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Lookup(context.Background(), "word")
	assert.Error(t, err)
}
