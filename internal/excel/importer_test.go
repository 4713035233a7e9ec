package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/kanjibot/pkg/models"
)

type memoryWriter struct {
	items map[string]models.Item
	order []string
}

func newMemoryWriter() *memoryWriter {
	return &memoryWriter{items: make(map[string]models.Item)}
}

func (w *memoryWriter) Upsert(_ context.Context, item *models.Item) (bool, error) {
	_, exists := w.items[item.ID]
	w.items[item.ID] = *item
	if !exists {
		w.order = append(w.order, item.ID)
	}
	return !exists, nil
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "kanji.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportItemsFromExcel(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Character", "Meaning", "Reading", "Kind", "Deck"},
		{"日", "sun; day", "にち", "", "N5"},
		{"日本", "Japan", "にほん", "vocab", "N5 vocab"},
		{"", "orphan meaning"},
		{"月", "", "げつ"},
		{"火", "fire", "か", "radical"},
		{"水", "water", "すい", "kanji", ""},
		{"日", "sun", "にち", "kanji", "N5"},
	})

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.DefaultDeck = "misc"
	w := newMemoryWriter()

	result, err := ImportItems(context.Background(), cfg, w)
	require.NoError(t, err)

	assert.Equal(t, 7, result.TotalProcessed)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 3, result.Skipped)
	assert.Len(t, result.Errors, 3)

	assert.Equal(t, []string{"kanji:日", "vocab:日本", "kanji:水"}, w.order)
	assert.Equal(t, models.Item{
		ID: "kanji:日", Kind: models.KindKanji, Character: "日", Meaning: "sun",
		Reading: "にち", Deck: "N5", Position: 8,
	}, w.items["kanji:日"])
	assert.Equal(t, "misc", w.items["kanji:水"].Deck)
}

func TestImportItemsFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.csv")
	content := "character,meaning,reading\n" +
		"先生,teacher,せんせい\n" +
		"\n" +
		"学,study,がく\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.KindColumn = ""
	cfg.DeckColumn = ""
	cfg.DefaultDeck = "lesson 1"
	w := newMemoryWriter()

	result, err := ImportItems(context.Background(), cfg, w)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Errors)
	assert.Equal(t, models.KindVocab, w.items["vocab:先生"].Kind)
	assert.Equal(t, models.KindKanji, w.items["kanji:学"].Kind)
	assert.Equal(t, "lesson 1", w.items["kanji:学"].Deck)
}

func TestImportItemsErrors(t *testing.T) {
	cfg := DefaultImportConfig()
	cfg.FilePath = filepath.Join(t.TempDir(), "missing.xlsx")
	_, err := ImportItems(context.Background(), cfg, newMemoryWriter())
	assert.Error(t, err)

	cfg.CharacterColumn = "1A"
	_, err = ImportItems(context.Background(), cfg, newMemoryWriter())
	assert.Error(t, err)
}
