package quiz

import (
	"math/rand"

	"github.com/example/kanjibot/pkg/models"
)

// QuestionType selects what the learner has to pick
type QuestionType string

const (
	// MeaningChoice asks for the meaning of the character
	MeaningChoice QuestionType = "meaning"
	// ReadingChoice asks for the kana reading of the character
	ReadingChoice QuestionType = "reading"
)

// DefaultOptions is the number of answers offered per question
const DefaultOptions = 4

// Question is a single multiple choice question about an item
type Question struct {
	Item         models.Item
	Type         QuestionType
	Options      []string // Possible answers
	CorrectIndex int      // Index of the correct answer in Options
}

// Builder creates questions from a pool of catalogue items
type Builder struct {
	rnd     *rand.Rand
	options int
}

// NewBuilder creates a builder; a nil rnd gets a randomly seeded source.
// A Builder is not safe for concurrent use.
func NewBuilder(rnd *rand.Rand, options int) *Builder {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	if options < 2 {
		options = DefaultOptions
	}
	return &Builder{rnd: rnd, options: options}
}

// NewQuestion builds a question about item. Wrong answers come from the same
// deck first and from the rest of pool after that. A reading question falls
// back to a meaning question when item has no reading.
func (b *Builder) NewQuestion(item models.Item, pool []models.Item, questionType QuestionType) Question {
	if questionType == ReadingChoice && item.Reading == "" {
		questionType = MeaningChoice
	}
	answer := func(it models.Item) string {
		if questionType == ReadingChoice {
			return it.Reading
		}
		return it.Meaning
	}

	correct := answer(item)
	options := append(b.distractors(item, pool, correct, answer), correct)
	correctIndex := len(options) - 1

	b.rnd.Shuffle(len(options), func(i, j int) {
		if i == correctIndex {
			correctIndex = j
		} else if j == correctIndex {
			correctIndex = i
		}
		options[i], options[j] = options[j], options[i]
	})

	return Question{
		Item:         item,
		Type:         questionType,
		Options:      options,
		CorrectIndex: correctIndex,
	}
}

// distractors picks up to options-1 distinct wrong answers
func (b *Builder) distractors(item models.Item, pool []models.Item, correct string, answer func(models.Item) string) []string {
	var sameDeck, otherDecks []models.Item
	for _, it := range pool {
		if it.ID == item.ID {
			continue
		}
		if it.Deck == item.Deck {
			sameDeck = append(sameDeck, it)
		} else {
			otherDecks = append(otherDecks, it)
		}
	}
	b.shuffle(sameDeck)
	b.shuffle(otherDecks)

	want := b.options - 1
	seen := map[string]bool{correct: true}
	options := make([]string, 0, want)
	for _, it := range append(sameDeck, otherDecks...) {
		if len(options) == want {
			break
		}
		a := answer(it)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		options = append(options, a)
	}
	return options
}

func (b *Builder) shuffle(items []models.Item) {
	b.rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
