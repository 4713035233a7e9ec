package models

import "time"

// ReviewRecord is the spaced repetition state of a single item
type ReviewRecord struct {
	Level        int     `json:"level" db:"level"`                   // Days until next review once the item is known; 0 = learning loop
	EaseFactor   float64 `json:"ease_factor" db:"ease_factor"`       // Interval multiplier in [1.3, 2.5]
	NextReviewAt int64   `json:"next_review_at" db:"next_review_at"` // Epoch milliseconds; 0 = due now
	IsDone       bool    `json:"is_done" db:"is_done"`
}

// DefaultRecord returns the implicit state of an item that was never reviewed
func DefaultRecord() ReviewRecord {
	return ReviewRecord{
		Level:      0,
		EaseFactor: 2.5,
	}
}

// HasDueDate reports whether the record is scheduled on a calendar date
func (r ReviewRecord) HasDueDate() bool {
	return r.NextReviewAt != 0
}

// DueTime returns the scheduled due time in loc, or the zero time when the
// record is due immediately
func (r ReviewRecord) DueTime(loc *time.Location) time.Time {
	if !r.HasDueDate() {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(r.NextReviewAt).In(loc)
}
