package excel

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/wordbank/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return t0 }

type memStore struct {
	words []models.Word
}

func (m *memStore) GetAll(ctx context.Context) ([]models.Word, error) {
	return m.words, nil
}

func (m *memStore) Save(ctx context.Context, word *models.Word) error {
	word.ID = int64(len(m.words) + 1)
	m.words = append(m.words, *word)
	return nil
}

func sampleWords() []models.Word {
	return []models.Word{
		{
			Word:        "ephemeral",
			Definitions: []models.Definition{{PartOfSpeech: "adjective", Definition: "Lasting a very short time."}},
			Category:    "reading",
			URL:         "https://example.com/a",
			Timestamp:   t0.UnixMilli(),
			Progress: &models.WordProgress{
				CorrectCount: 2, TotalReviews: 2, Interval: 6, EaseFactor: 2.6,
				LastReviewed: t0.UnixMilli(), NextReview: t0.Add(6 * 24 * time.Hour).UnixMilli(),
				Stage: models.StageReview, Difficulty: models.DifficultyEasy, MasteryLevel: 100,
			},
		},
		{
			Word:        "lucid",
			Definitions: []models.Definition{{PartOfSpeech: "adjective", Definition: "Clear, easy to understand."}},
			Timestamp:   t0.UnixMilli(),
		},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"xlsx": FormatXLSX, ".CSV": FormatCSV, " json ": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)

	f, err := FormatFromPath("/tmp/backup.json")
	require.NoError(t, err)
	assert.Equal(t, ".json", f.Extension())
}

func TestExportExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleWords(), FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Word", rows[0][0])
	assert.Equal(t, []string{"ephemeral", "Lasting a very short time.", "adjective", "reading", "https://example.com/a"}, rows[1][:5])
	assert.Equal(t, "review", rows[1][9])
	assert.Equal(t, "2.60", rows[1][13])
	assert.Equal(t, "new", rows[2][9])
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleWords(), FormatCSV))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Word,Definition,Part of speech,Category,URL"))
	assert.Contains(t, lines[1], "2025-06-15T10:00:00Z")
	assert.Contains(t, lines[2], `"Clear, easy to understand."`)
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleWords(), FormatJSON))

	var words []models.Word
	require.NoError(t, json.Unmarshal(buf.Bytes(), &words))
	require.Len(t, words, 2)
	assert.Equal(t, sampleWords()[0].Progress, words[0].Progress)
	assert.Contains(t, buf.String(), "\n  {")

	buf.Reset()
	require.NoError(t, Export(&buf, nil, FormatJSON))
	assert.Equal(t, "[]\n", buf.String())
}

func TestExportUnsupported(t *testing.T) {
	assert.Error(t, Export(&bytes.Buffer{}, nil, Format("pdf")))
	assert.Error(t, ExportFile(filepath.Join(t.TempDir(), "words.txt"), nil))
}

func TestExcelRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.xlsx")
	require.NoError(t, ExportFile(path, sampleWords()))

	store := &memStore{}
	result, err := NewImporter(store, DefaultImportConfig(), clock).ImportFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Errors)
	require.Len(t, store.words, 2)
	assert.Equal(t, "ephemeral", store.words[0].Word)
	assert.Equal(t, "reading", store.words[0].Category)
	assert.Equal(t, sampleWords()[0].Definitions, store.words[0].Definitions)
	assert.Nil(t, store.words[0].Progress)
}

func TestImportCSV(t *testing.T) {
	input := "word,definition,part of speech,category,url\n" +
		"\"Go (went, gone)\",To move,Verb,travel,\n" +
		",orphan definition,noun,,\n" +
		"\n" +
		"lucid,Clear,adjective,,\n" +
		"LUCID,Duplicate,adjective,,\n" +
		"terse\n"
	store := &memStore{words: []models.Word{{Word: "lucid"}}}

	result, err := NewImporter(store, DefaultImportConfig(), clock).Import(context.Background(), strings.NewReader(input), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 3")

	require.Len(t, store.words, 3)
	goWord := store.words[1]
	assert.Equal(t, "go", goWord.Word)
	assert.Equal(t, "travel", goWord.Category)
	assert.Equal(t, []models.Definition{{PartOfSpeech: "verb", Definition: "To move"}}, goWord.Definitions)
	assert.Equal(t, t0.UnixMilli(), goWord.Timestamp)
	assert.Equal(t, "terse", store.words[2].Word)
	assert.Empty(t, store.words[2].Definitions)
}

func TestImportJSONKeepsProgressOfNewWordsOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleWords(), FormatJSON))

	existing := models.Word{Word: "lucid", Progress: &models.WordProgress{TotalReviews: 9}}
	store := &memStore{words: []models.Word{existing}}

	result, err := NewImporter(store, DefaultImportConfig(), clock).Import(context.Background(), &buf, FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, store.words, 2)
	assert.Equal(t, 9, store.words[0].Progress.TotalReviews)
	assert.Equal(t, sampleWords()[0].Progress, store.words[1].Progress)
}

func TestImportJSONExportEnvelope(t *testing.T) {
	backup := `{
		"exportDate": "2025-06-15T10:00:00.000Z",
		"totalWords": 2,
		"words": [
			{"word": "Serendipity", "definitions": [{"partOfSpeech": "noun", "definition": "A happy accident."}], "timestamp": 1718445600000, "isFavorite": true, "tags": ["gre"]},
			{"word": "lucid", "definitions": [], "timestamp": 1718445600000}
		]
	}`
	store := &memStore{}

	result, err := NewImporter(store, DefaultImportConfig(), clock).Import(context.Background(), strings.NewReader(backup), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Errors)
	require.Len(t, store.words, 2)
	assert.Equal(t, "serendipity", store.words[0].Word)
	assert.True(t, store.words[0].IsFavorite)
	assert.Equal(t, []string{"gre"}, store.words[0].Tags)
	assert.Equal(t, int64(1718445600000), store.words[0].Timestamp)

	_, err = NewImporter(&memStore{}, DefaultImportConfig(), clock).Import(context.Background(), strings.NewReader(`{"exportDate": "x"}`), FormatJSON)
	assert.Error(t, err)
}

func TestImportJSONDropsInvalidProgress(t *testing.T) {
	backup := `[
		{"word": "sticky", "timestamp": 1, "progress": {"correctCount": 1, "incorrectCount": 0, "totalReviews": 1, "interval": 1, "easeFactor": 1.1, "stage": "learning", "difficulty": "medium", "masteryLevel": 20, "nextReview": 5}},
		{"word": "counted", "timestamp": 1, "progress": {"correctCount": 1, "incorrectCount": 1, "totalReviews": 5, "interval": 1, "easeFactor": 2.5, "stage": "learning", "difficulty": "medium", "masteryLevel": 20, "nextReview": 5}},
		{"word": "fine", "timestamp": 1, "progress": {"correctCount": 1, "incorrectCount": 1, "totalReviews": 2, "interval": 1, "easeFactor": 2.18, "stage": "learning", "difficulty": "medium", "masteryLevel": 20, "nextReview": 5}}
	]`
	store := &memStore{}

	result, err := NewImporter(store, DefaultImportConfig(), clock).Import(context.Background(), strings.NewReader(backup), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Created)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Entry 1: progress dropped")
	assert.Contains(t, result.Errors[1], "Entry 2: progress dropped")

	require.Len(t, store.words, 3)
	assert.Nil(t, store.words[0].Progress)
	assert.Nil(t, store.words[1].Progress)
	require.NotNil(t, store.words[2].Progress)
	assert.Equal(t, 2.18, store.words[2].Progress.EaseFactor)
}

func TestImportInvalidInput(t *testing.T) {
	im := NewImporter(&memStore{}, DefaultImportConfig(), clock)

	_, err := im.Import(context.Background(), strings.NewReader("{"), FormatJSON)
	assert.Error(t, err)

	_, err = im.Import(context.Background(), strings.NewReader("not a workbook"), FormatXLSX)
	assert.Error(t, err)

	_, err = im.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
