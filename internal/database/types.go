package database

// DeckSummary is a deck name with the number of items it holds
type DeckSummary struct {
	Name  string `db:"deck"`
	Items int    `db:"items"`
}
