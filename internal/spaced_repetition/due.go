package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/kanjibot/pkg/models"
)

// MasteredLevel is the interval in days from which an item counts as mastered
const MasteredLevel = 30

// IsDue reports whether rec should be reviewed at now. A record without a
// calendar date is always due.
func IsDue(rec models.ReviewRecord, now time.Time) bool {
	if rec.IsDone {
		return false
	}
	return rec.NextReviewAt == 0 || rec.NextReviewAt <= now.UnixMilli()
}

// IsMastered determines if an item is considered "mastered"
func IsMastered(rec models.ReviewRecord) bool {
	// An item is considered mastered if:
	// 1. It is on a calendar schedule (not in the learning loop)
	// 2. Its interval has grown to at least a month
	return rec.HasDueDate() && rec.Level >= MasteredLevel
}

// DueItems returns the IDs of the records due at now, at most limit of them
// (limit <= 0 returns all)
func DueItems(records map[string]models.ReviewRecord, now time.Time, limit int) []string {
	due := make([]string, 0, len(records))
	for id, rec := range records {
		if IsDue(rec, now) {
			due = append(due, id)
		}
	}

	// Sort due items by priority:
	// 1. Items in the short-term learning loop
	// 2. Items with the lowest ease factor (hardest items)
	// 3. Items that are most overdue
	sort.Slice(due, func(i, j int) bool {
		a, b := records[due[i]], records[due[j]]

		if a.HasDueDate() != b.HasDueDate() {
			return !a.HasDueDate()
		}
		if a.EaseFactor != b.EaseFactor {
			return a.EaseFactor < b.EaseFactor
		}
		if a.NextReviewAt != b.NextReviewAt {
			return a.NextReviewAt < b.NextReviewAt
		}
		return due[i] < due[j]
	})

	if limit > 0 && len(due) > limit {
		return due[:limit]
	}
	return due
}
