package models

// ItemKind distinguishes the learning modes an item belongs to
type ItemKind string

const (
	KindKanji ItemKind = "kanji"
	KindVocab ItemKind = "vocab"
)

// Item is a learnable character or vocabulary entry
type Item struct {
	ID        string   `json:"id" db:"id"`
	Kind      ItemKind `json:"kind" db:"kind"`
	Character string   `json:"character" db:"term"`
	Meaning   string   `json:"meaning" db:"meaning"`
	Reading   string   `json:"reading" db:"reading"` // Optional: kana reading
	Deck      string   `json:"deck" db:"deck"`
	Position  int      `json:"position" db:"position"` // Study order inside the deck
}

// ItemID builds the catalogue identifier for a character of the given kind
func ItemID(kind ItemKind, character string) string {
	return string(kind) + ":" + character
}
