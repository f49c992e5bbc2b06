package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/example/wordbank/pkg/models"
	"github.com/xuri/excelize/v2"
)

// Store is the part of the word store an import needs
type Store interface {
	GetAll(ctx context.Context) ([]models.Word, error)
	Save(ctx context.Context, word *models.Word) error
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	SheetName string // Sheet to import, the first sheet when empty
	StartRow  int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		StartRow: 2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// Importer adds words from files to the word bank. Words that already
// exist are skipped so their progress is never overwritten.
type Importer struct {
	store  Store
	config ImportConfig
	now    func() time.Time
}

// NewImporter creates an importer
func NewImporter(store Store, config ImportConfig, now func() time.Time) *Importer {
	if now == nil {
		now = time.Now
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	return &Importer{store: store, config: config, now: now}
}

// ImportFile imports words from an Excel, CSV or JSON file
func (im *Importer) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer file.Close()

	return im.Import(ctx, file, format)
}

// Import reads words in the given format from r
func (im *Importer) Import(ctx context.Context, r io.Reader, format Format) (*ImportResult, error) {
	existing, err := im.existingWords(ctx)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		rows, err := im.excelRows(r)
		if err != nil {
			return nil, err
		}
		return im.importRows(ctx, rows, existing), nil
	case FormatCSV:
		rows, err := csvRows(r)
		if err != nil {
			return nil, err
		}
		return im.importRows(ctx, rows, existing), nil
	case FormatJSON:
		return im.importJSON(ctx, r, existing)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func (im *Importer) existingWords(ctx context.Context) (map[string]bool, error) {
	words, err := im.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing words: %w", err)
	}
	existing := make(map[string]bool, len(words))
	for _, w := range words {
		existing[models.NormalizeWord(w.Word)] = true
	}
	return existing, nil
}

func (im *Importer) excelRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := im.config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func csvRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

// importRows imports rows of word, definition, part of speech, category, url
func (im *Importer) importRows(ctx context.Context, rows [][]string, existing map[string]bool) *ImportResult {
	result := &ImportResult{Errors: make([]string, 0)}

	for i, row := range rows {
		rowNum := i + 1
		// Skip header rows
		if rowNum < im.config.StartRow || isBlankRow(row) {
			continue
		}
		result.TotalProcessed++

		word := rowToWord(row)
		word.Timestamp = im.now().UnixMilli()
		if err := im.importWord(ctx, &word, existing, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return result
}

// jsonExport is the backup envelope written by the browser extension
type jsonExport struct {
	ExportDate string        `json:"exportDate"`
	TotalWords int           `json:"totalWords"`
	Words      []models.Word `json:"words"`
}

// decodeJSONWords accepts either a bare array of words or a jsonExport
func decodeJSONWords(r io.Reader) ([]models.Word, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read words: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var export jsonExport
		if err := json.Unmarshal(trimmed, &export); err != nil {
			return nil, fmt.Errorf("failed to decode export: %w", err)
		}
		if export.Words == nil {
			return nil, fmt.Errorf("failed to decode export: no words field")
		}
		return export.Words, nil
	}

	var words []models.Word
	if err := json.Unmarshal(trimmed, &words); err != nil {
		return nil, fmt.Errorf("failed to decode words: %w", err)
	}
	return words, nil
}

func (im *Importer) importJSON(ctx context.Context, r io.Reader, existing map[string]bool) (*ImportResult, error) {
	words, err := decodeJSONWords(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i := range words {
		result.TotalProcessed++

		word := words[i]
		word.ID = 0
		if word.Timestamp == 0 {
			word.Timestamp = im.now().UnixMilli()
		}
		if word.Progress != nil {
			if err := word.Progress.Validate(); err != nil {
				// The word starts over as new
				log.Printf("Dropping progress of imported word %q: %v", word.Word, err)
				result.Errors = append(result.Errors, fmt.Sprintf("Entry %d: progress dropped: %v", i+1, err))
				word.Progress = nil
			}
		}
		if err := im.importWord(ctx, &word, existing, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Entry %d: %v", i+1, err))
		}
	}
	return result, nil
}

var errEmptyWord = errors.New("word cannot be empty")

// importWord saves a word unless it already exists
func (im *Importer) importWord(ctx context.Context, word *models.Word, existing map[string]bool, result *ImportResult) error {
	word.Word = models.NormalizeWord(cleanWord(word.Word))
	if word.Word == "" {
		return errEmptyWord
	}

	if existing[word.Word] {
		result.Skipped++
		return nil
	}

	if err := im.store.Save(ctx, word); err != nil {
		return fmt.Errorf("failed to create word: %w", err)
	}
	existing[word.Word] = true
	result.Created++
	return nil
}

func rowToWord(row []string) models.Word {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	word := models.Word{
		Word:     cell(0),
		Category: strings.ToLower(cell(3)),
		URL:      cell(4),
	}
	if definition := cell(1); definition != "" {
		word.Definitions = []models.Definition{{
			PartOfSpeech: strings.ToLower(cell(2)),
			Definition:   definition,
		}}
	}
	return word
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cleanWord removes extra information in parentheses, e.g. "go (went, gone)"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}
