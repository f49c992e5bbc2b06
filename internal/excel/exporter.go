package excel

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/example/wordbank/pkg/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the sheet words are exported to
const SheetName = "Words"

// Columns of an export. The first five are the import columns.
var exportHeader = []string{
	"Word", "Definition", "Part of speech", "Category", "URL",
	"Page title", "Note", "Favorite", "Saved at",
	"Stage", "Difficulty", "Mastery", "Interval (days)", "Ease factor",
	"Correct", "Incorrect", "Last reviewed", "Next review",
}

// Export writes the words to w in the given format
func Export(w io.Writer, words []models.Word, format Format) error {
	switch format {
	case FormatXLSX:
		return exportExcel(w, words)
	case FormatCSV:
		return exportCSV(w, words)
	case FormatJSON:
		return exportJSON(w, words)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// ExportFile writes the words to path, choosing the format by extension
func ExportFile(path string, words []models.Word) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := Export(file, words, format); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// exportRow flattens a word into the export columns
func exportRow(w models.Word) []string {
	var definition, partOfSpeech string
	if len(w.Definitions) > 0 {
		definition = w.Definitions[0].Definition
		partOfSpeech = w.Definitions[0].PartOfSpeech
	}

	row := []string{
		w.Word, definition, partOfSpeech, w.Category, w.URL,
		w.PageTitle, w.PersonalNote, strconv.FormatBool(w.IsFavorite), formatMillis(w.Timestamp),
	}

	p := w.Progress
	if p == nil {
		// Never reviewed
		return append(row, "new", "", "0", "", "", "0", "0", "", "")
	}
	return append(row,
		string(p.Stage),
		string(p.Difficulty),
		strconv.Itoa(p.MasteryLevel),
		strconv.Itoa(p.Interval),
		strconv.FormatFloat(p.EaseFactor, 'f', 2, 64),
		strconv.Itoa(p.CorrectCount),
		strconv.Itoa(p.IncorrectCount),
		formatMillis(p.LastReviewed),
		formatMillis(p.NextReview),
	)
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func exportExcel(w io.Writer, words []models.Word) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), SheetName)

	if err := f.SetSheetRow(SheetName, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, word := range words {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := exportRow(word)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 60); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func exportCSV(w io.Writer, words []models.Word) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, word := range words {
		if err := writer.Write(exportRow(word)); err != nil {
			return fmt.Errorf("failed to write %q: %w", word.Word, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func exportJSON(w io.Writer, words []models.Word) error {
	if words == nil {
		words = []models.Word{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(words); err != nil {
		return fmt.Errorf("failed to encode words: %w", err)
	}
	return nil
}
