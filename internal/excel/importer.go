package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/example/kanjibot/pkg/models"
)

// ItemWriter stores imported catalogue items
type ItemWriter interface {
	Upsert(ctx context.Context, item *models.Item) (created bool, err error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath        string // Path to the Excel or CSV file
	CharacterColumn string // Column with the kanji or word
	MeaningColumn   string // Column with the meaning
	ReadingColumn   string // Column with the reading
	KindColumn      string // Column with the kind (kanji/vocab); empty to infer
	DeckColumn      string // Column with the deck name
	DefaultDeck     string // Deck used when the deck cell is empty
	SheetName       string // Name of the sheet to import
	StartRow        int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		CharacterColumn: "A",
		MeaningColumn:   "B",
		ReadingColumn:   "C",
		KindColumn:      "D",
		DeckColumn:      "E",
		SheetName:       "Sheet1",
		StartRow:        2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ImportItems imports catalogue items from an Excel or CSV file
func ImportItems(ctx context.Context, config ImportConfig, w ItemWriter) (*ImportResult, error) {
	cols, err := resolveColumns(config)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNum := i + 1
		// Skip header rows
		if rowNum < config.StartRow || isBlank(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.TotalProcessed++
		item, err := cols.item(row, config.DefaultDeck, rowNum)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		created, err := w.Upsert(ctx, item)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	return result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get rows of %s", sheet)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "error reading CSV")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columns holds zero-based column indexes; -1 marks an unused column
type columns struct {
	character, meaning, reading, kind, deck int
}

func resolveColumns(config ImportConfig) (columns, error) {
	var c columns
	var err error
	if c.character, err = columnIndex(config.CharacterColumn, true); err != nil {
		return c, err
	}
	if c.meaning, err = columnIndex(config.MeaningColumn, true); err != nil {
		return c, err
	}
	if c.reading, err = columnIndex(config.ReadingColumn, false); err != nil {
		return c, err
	}
	if c.kind, err = columnIndex(config.KindColumn, false); err != nil {
		return c, err
	}
	if c.deck, err = columnIndex(config.DeckColumn, false); err != nil {
		return c, err
	}
	return c, nil
}

func columnIndex(name string, required bool) (int, error) {
	if name == "" {
		if required {
			return -1, errors.New("required column is not configured")
		}
		return -1, nil
	}
	n, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return -1, errors.Wrapf(err, "invalid column %q", name)
	}
	return n - 1, nil
}

func (c columns) item(row []string, defaultDeck string, rowNum int) (*models.Item, error) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	character := cell(c.character)
	meaning := cell(c.meaning)
	if character == "" {
		return nil, errors.New("character cannot be empty")
	}
	if meaning == "" {
		return nil, errors.New("meaning cannot be empty")
	}

	kind, err := parseKind(cell(c.kind), character)
	if err != nil {
		return nil, err
	}

	deck := cell(c.deck)
	if deck == "" {
		deck = defaultDeck
	}

	return &models.Item{
		ID:        models.ItemID(kind, character),
		Kind:      kind,
		Character: character,
		Meaning:   meaning,
		Reading:   cell(c.reading),
		Deck:      deck,
		Position:  rowNum,
	}, nil
}

// parseKind reads the kind cell; an empty cell means kanji for a single
// character and vocab otherwise
func parseKind(s, character string) (models.ItemKind, error) {
	switch strings.ToLower(s) {
	case "":
		if utf8.RuneCountInString(character) == 1 {
			return models.KindKanji, nil
		}
		return models.KindVocab, nil
	case "kanji":
		return models.KindKanji, nil
	case "vocab", "vocabulary":
		return models.KindVocab, nil
	}
	return "", errors.Errorf("unknown kind %q", s)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
