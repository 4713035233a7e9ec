package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/kanjibot/pkg/models"
)

// SRS computes the next scheduling state of an item after a review
type SRS struct {
	// Lower and upper bound of the ease factor
	MinEase float64
	MaxEase float64
	// Ease factor of an item that was never reviewed
	InitialEase float64
	// Ease lost on a failed recall
	FailPenalty float64
	// Ease gained on a successful steady-state recall
	PassBonus float64
	// Local hour at which scheduled items become due
	DueHour int
	// Location used for calendar arithmetic; nil means time.Local
	Location *time.Location
	// Clock; nil means time.Now
	Now func() time.Time
}

// NewSRS creates a new SRS with the default settings
func NewSRS() *SRS {
	return &SRS{
		MinEase:     1.3,
		MaxEase:     2.5,
		InitialEase: 2.5,
		FailPenalty: 0.2,
		PassBonus:   0.1,
		DueHour:     5, // Reviews for a day open at 05:00
	}
}

// CurrentTime returns the time according to the configured clock
func (s *SRS) CurrentTime() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SRS) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.Local
}

// Review schedules current after a review of the given quality at the clock's current time
func (s *SRS) Review(current *models.ReviewRecord, quality Quality) models.ReviewRecord {
	return s.ReviewAt(current, quality, s.CurrentTime())
}

// ReviewAt returns the record that follows current after a review of the given
// quality at now. current may be nil for an item that was never reviewed; it is
// never modified.
func (s *SRS) ReviewAt(current *models.ReviewRecord, quality Quality, now time.Time) models.ReviewRecord {
	// Not yet due and asked to come back later: leave it alone
	if current != nil && quality == QualityFail && current.NextReviewAt > now.UnixMilli() {
		return *current
	}

	rec := s.normalize(current)

	if quality != QualityPass {
		rec.EaseFactor = s.clampEase(rec.EaseFactor - s.FailPenalty)
		rec.Level = 0
		rec.NextReviewAt = 0
		rec.IsDone = false
		return rec
	}

	var interval int
	if !rec.HasDueDate() || rec.Level == 0 {
		// Fresh or just lapsed: one day, no multiplier
		interval = 1
		rec.EaseFactor = s.clampEase(rec.EaseFactor)
	} else {
		interval = int(math.Ceil(float64(rec.Level)*rec.EaseFactor - 1e-9))
		if interval < 1 {
			interval = 1
		}
		rec.EaseFactor = s.clampEase(rec.EaseFactor + s.PassBonus)
	}

	rec.Level = interval
	rec.NextReviewAt = s.NextDueAt(now, interval).UnixMilli()
	rec.IsDone = false
	return rec
}

// NextDueAt returns the DueHour o'clock instant, days calendar days after now.
// The date is advanced on the calendar rather than by 24h steps so DST changes
// do not shift the hour.
func (s *SRS) NextDueAt(now time.Time, days int) time.Time {
	local := now.In(s.location())
	y, m, d := local.Date()
	return time.Date(y, m, d+days, s.DueHour, 0, 0, 0, s.location())
}

// initialRecord is the implicit record of a never reviewed item under this configuration
func (s *SRS) initialRecord() models.ReviewRecord {
	rec := models.DefaultRecord()
	if s.InitialEase > 0 {
		rec.EaseFactor = s.InitialEase
	}
	return rec
}

// normalize copies current, falling back to defaults for missing or malformed fields
func (s *SRS) normalize(current *models.ReviewRecord) models.ReviewRecord {
	initial := s.initialRecord()
	if current == nil {
		return initial
	}
	rec := *current
	if rec.EaseFactor <= 0 || math.IsNaN(rec.EaseFactor) {
		rec.EaseFactor = initial.EaseFactor
	}
	if rec.Level < 0 {
		rec.Level = 0
	}
	return rec
}

func (s *SRS) clampEase(ef float64) float64 {
	// Two decimals is all the 0.1/0.2 steps need; rounding stops float drift
	ef = math.Round(ef*100) / 100
	if ef < s.MinEase {
		return s.MinEase
	}
	if ef > s.MaxEase {
		return s.MaxEase
	}
	return ef
}
