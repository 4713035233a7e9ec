package quiz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/kanjibot/pkg/models"
)

var pool = []models.Item{
	{ID: "kanji:日", Character: "日", Meaning: "sun", Reading: "にち", Deck: "N5"},
	{ID: "kanji:月", Character: "月", Meaning: "moon", Reading: "げつ", Deck: "N5"},
	{ID: "kanji:火", Character: "火", Meaning: "fire", Reading: "か", Deck: "N5"},
	{ID: "kanji:水", Character: "水", Meaning: "water", Reading: "すい", Deck: "N5"},
	{ID: "kanji:木", Character: "木", Meaning: "tree", Reading: "もく", Deck: "N5"},
	{ID: "vocab:先生", Character: "先生", Meaning: "teacher", Deck: "N4"},
	{ID: "vocab:学生", Character: "学生", Meaning: "sun", Deck: "N4"},
}

func TestMeaningQuestion(t *testing.T) {
	b := NewBuilder(rand.New(rand.NewSource(1)), 4)

	for i := 0; i < 20; i++ {
		q := b.NewQuestion(pool[0], pool, MeaningChoice)
		require.Len(t, q.Options, 4)
		assert.Equal(t, "sun", q.Options[q.CorrectIndex])
		assert.Equal(t, MeaningChoice, q.Type)

		// Same-deck meanings are preferred and answers never repeat
		seen := map[string]bool{}
		for _, o := range q.Options {
			assert.False(t, seen[o], "duplicate option %q", o)
			seen[o] = true
			assert.NotEqual(t, "teacher", o)
		}
	}
}

func TestReadingQuestion(t *testing.T) {
	b := NewBuilder(rand.New(rand.NewSource(2)), 3)

	q := b.NewQuestion(pool[1], pool, ReadingChoice)
	require.Len(t, q.Options, 3)
	assert.Equal(t, ReadingChoice, q.Type)
	assert.Equal(t, "げつ", q.Options[q.CorrectIndex])

	// No reading to ask for
	q = b.NewQuestion(pool[5], pool, ReadingChoice)
	assert.Equal(t, MeaningChoice, q.Type)
	assert.Equal(t, "teacher", q.Options[q.CorrectIndex])
}

func TestSmallPool(t *testing.T) {
	b := NewBuilder(nil, 0)

	q := b.NewQuestion(pool[0], pool[:2], MeaningChoice)
	assert.ElementsMatch(t, []string{"sun", "moon"}, q.Options)

	q = b.NewQuestion(pool[0], nil, MeaningChoice)
	assert.Equal(t, []string{"sun"}, q.Options)
	assert.Equal(t, 0, q.CorrectIndex)
}
