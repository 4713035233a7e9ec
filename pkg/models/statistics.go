package models

// Stats summarises a user's review progress
type Stats struct {
	Total    int     `json:"total" db:"total"`
	Due      int     `json:"due" db:"due"`
	Learning int     `json:"learning" db:"learning"` // Records still in the short-term loop
	Mastered int     `json:"mastered" db:"mastered"`
	AvgEase  float64 `json:"avg_ease" db:"avg_ease"`
}
