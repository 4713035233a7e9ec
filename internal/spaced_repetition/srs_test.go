package spaced_repetition

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/kanjibot/pkg/models"
)

var tokyo = time.FixedZone("JST", 9*60*60)

var t0 = time.Date(2025, 6, 15, 10, 30, 0, 0, tokyo)

func newTestSRS() *SRS {
	s := NewSRS()
	s.Location = tokyo
	s.Now = func() time.Time { return t0 }
	return s
}

func at5(t time.Time, days int) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d+days, 5, 0, 0, 0, t.Location()).UnixMilli()
}

func TestNewSRSDefaults(t *testing.T) {
	s := NewSRS()
	assert.Equal(t, 1.3, s.MinEase)
	assert.Equal(t, 2.5, s.MaxEase)
	assert.Equal(t, 2.5, s.InitialEase)
	assert.Equal(t, 5, s.DueHour)
	assert.Nil(t, s.Now)
}

func TestFirstPassIsOneDay(t *testing.T) {
	s := newTestSRS()

	got := s.Review(nil, QualityPass)

	assert.Equal(t, models.ReviewRecord{
		Level:        1,
		EaseFactor:   2.5,
		NextReviewAt: at5(t0, 1),
		IsDone:       false,
	}, got)
}

func TestPassIgnoresEaseWhileLearning(t *testing.T) {
	s := newTestSRS()
	for _, ef := range []float64{1.3, 1.7, 2.0, 2.5} {
		got := s.Review(&models.ReviewRecord{Level: 0, EaseFactor: ef}, QualityPass)
		assert.Equal(t, 1, got.Level, "ease %v", ef)
		assert.Equal(t, ef, got.EaseFactor, "ease %v", ef)
	}

	// level 0 with a calendar date still takes the one day path
	got := s.Review(&models.ReviewRecord{Level: 0, EaseFactor: 2.0, NextReviewAt: t0.Add(-time.Hour).UnixMilli()}, QualityPass)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, 2.0, got.EaseFactor)
}

func TestSteadyStateGrowth(t *testing.T) {
	s := newTestSRS()
	cur := models.ReviewRecord{Level: 6, EaseFactor: 2.0, NextReviewAt: t0.Add(-time.Hour).UnixMilli()}

	got := s.Review(&cur, QualityPass)

	assert.Equal(t, 12, got.Level)
	assert.Equal(t, 2.1, got.EaseFactor)
	assert.Equal(t, at5(t0, 12), got.NextReviewAt)
}

func TestCeilRoundsUp(t *testing.T) {
	s := newTestSRS()
	cur := models.ReviewRecord{Level: 5, EaseFactor: 1.3, NextReviewAt: t0.Add(-time.Hour).UnixMilli()}

	got := s.Review(&cur, QualityPass)

	assert.Equal(t, 7, got.Level) // ceil(6.5)
	assert.Equal(t, 1.4, got.EaseFactor)
}

func TestFailResets(t *testing.T) {
	s := newTestSRS()
	cur := models.ReviewRecord{Level: 12, EaseFactor: 2.1, NextReviewAt: t0.Add(-time.Minute).UnixMilli()}

	got := s.Review(&cur, QualityFail)

	assert.Equal(t, models.ReviewRecord{Level: 0, EaseFactor: 1.9, NextReviewAt: 0}, got)
}

func TestFailOnNeverReviewed(t *testing.T) {
	s := newTestSRS()

	got := s.Review(nil, QualityFail)

	assert.Equal(t, models.ReviewRecord{Level: 0, EaseFactor: 2.3, NextReviewAt: 0}, got)
}

func TestSnoozePassthrough(t *testing.T) {
	s := newTestSRS()
	cur := models.ReviewRecord{Level: 3, EaseFactor: 2.2, NextReviewAt: t0.AddDate(0, 0, 3).UnixMilli()}

	got := s.Review(&cur, QualityFail)

	assert.Equal(t, cur, got)
}

func TestPassOnNotYetDueStillSchedules(t *testing.T) {
	s := newTestSRS()
	cur := models.ReviewRecord{Level: 3, EaseFactor: 2.2, NextReviewAt: t0.AddDate(0, 0, 3).UnixMilli()}

	got := s.Review(&cur, QualityPass)

	assert.Equal(t, 7, got.Level) // ceil(6.6)
	assert.Equal(t, 2.3, got.EaseFactor)
	assert.Equal(t, at5(t0, 7), got.NextReviewAt)
}

func TestInputNotMutated(t *testing.T) {
	s := newTestSRS()
	cur := models.ReviewRecord{Level: 4, EaseFactor: 2.0, NextReviewAt: t0.Add(-time.Hour).UnixMilli()}
	before := cur

	s.Review(&cur, QualityPass)
	s.Review(&cur, QualityFail)

	assert.Equal(t, before, cur)
}

func TestEaseClamping(t *testing.T) {
	s := newTestSRS()

	var cur *models.ReviewRecord
	for i := 0; i < 20; i++ {
		next := s.Review(cur, QualityFail)
		require.GreaterOrEqual(t, next.EaseFactor, 1.3)
		cur = &next
	}
	assert.Equal(t, 1.3, cur.EaseFactor)

	now := t0
	rec := models.ReviewRecord{Level: 1, EaseFactor: 2.3, NextReviewAt: now.Add(-time.Hour).UnixMilli()}
	for i := 0; i < 10; i++ {
		rec = s.ReviewAt(&rec, QualityPass, now)
		require.LessOrEqual(t, rec.EaseFactor, 2.5)
		now = time.UnixMilli(rec.NextReviewAt).In(tokyo)
	}
	assert.Equal(t, 2.5, rec.EaseFactor)
}

func TestOutputClampedForOutOfRangeInput(t *testing.T) {
	s := newTestSRS()

	got := s.Review(&models.ReviewRecord{EaseFactor: 3.4}, QualityFail)
	assert.Equal(t, 2.5, got.EaseFactor)

	got = s.Review(&models.ReviewRecord{EaseFactor: 0.9}, QualityPass)
	assert.Equal(t, 1.3, got.EaseFactor)
}

func TestMalformedRecordUsesDefaults(t *testing.T) {
	s := newTestSRS()

	got := s.Review(&models.ReviewRecord{Level: -4, EaseFactor: 0}, QualityPass)

	assert.Equal(t, 1, got.Level)
	assert.Equal(t, 2.5, got.EaseFactor)
}

func TestInitialRecordFollowsConfiguration(t *testing.T) {
	s := newTestSRS()
	assert.Equal(t, models.DefaultRecord(), s.initialRecord())

	s.InitialEase = 2.0
	got := s.Review(nil, QualityFail)
	assert.Equal(t, 1.8, got.EaseFactor)

	// Unset initial ease falls back to the model default
	s.InitialEase = 0
	assert.Equal(t, models.DefaultRecord(), s.initialRecord())
}

func TestEaseDoesNotDrift(t *testing.T) {
	s := newTestSRS()
	rec := models.ReviewRecord{Level: 10, EaseFactor: 2.5, NextReviewAt: t0.Add(-time.Hour).UnixMilli()}

	// 2.5 -> 2.3 -> 2.1 -> 1.9 -> 1.7 -> 1.5
	for i := 0; i < 5; i++ {
		rec = s.Review(&rec, QualityFail)
	}
	assert.Equal(t, 1.5, rec.EaseFactor)

	// 1.5 (one day) -> 1.6 -> 1.7 -> 1.8
	now := t0
	for i := 0; i < 4; i++ {
		rec = s.ReviewAt(&rec, QualityPass, now)
		now = time.UnixMilli(rec.NextReviewAt).In(tokyo)
	}
	assert.Equal(t, 1.8, rec.EaseFactor)
}

func TestDueTimeIsPinnedToFive(t *testing.T) {
	s := newTestSRS()
	nows := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, tokyo),
		time.Date(2025, 1, 1, 4, 59, 59, 999e6, tokyo),
		time.Date(2025, 1, 1, 5, 0, 0, 1, tokyo),
		time.Date(2025, 12, 31, 23, 59, 0, 0, tokyo),
	}
	records := []*models.ReviewRecord{
		nil,
		{Level: 1, EaseFactor: 2.5, NextReviewAt: 1},
		{Level: 17, EaseFactor: 1.7, NextReviewAt: 1},
	}

	for _, now := range nows {
		for _, rec := range records {
			got := s.ReviewAt(rec, QualityPass, now)
			due := got.DueTime(tokyo)
			assert.Equal(t, 5, due.Hour())
			assert.Equal(t, 0, due.Minute())
			assert.Equal(t, 0, due.Second())
			assert.Equal(t, 0, due.Nanosecond())
			assert.True(t, due.After(now))
		}
	}
}

func TestEarlyMorningReviewIsDueNextDay(t *testing.T) {
	s := newTestSRS()
	now := time.Date(2025, 6, 15, 3, 0, 0, 0, tokyo)

	got := s.ReviewAt(nil, QualityPass, now)

	assert.Equal(t, time.Date(2025, 6, 16, 5, 0, 0, 0, tokyo).UnixMilli(), got.NextReviewAt)
}

func TestNextDueAtAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	s := NewSRS()
	s.Location = ny

	// Clocks go forward on 2025-03-09
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, ny)
	due := s.NextDueAt(now, 1)
	assert.Equal(t, time.Date(2025, 3, 9, 5, 0, 0, 0, ny), due)
	assert.Equal(t, 5, due.Hour())

	// and back on 2025-11-02
	now = time.Date(2025, 10, 30, 22, 0, 0, 0, ny)
	due = s.NextDueAt(now, 4)
	assert.Equal(t, 3, due.Day())
	assert.Equal(t, 5, due.Hour())
}

func TestEndToEndScenario(t *testing.T) {
	s := newTestSRS()

	first := s.Review(nil, QualityPass)
	assert.Equal(t, models.ReviewRecord{Level: 1, EaseFactor: 2.5, NextReviewAt: at5(t0, 1)}, first)

	second := s.Review(&first, QualityPass)
	assert.Equal(t, models.ReviewRecord{Level: 3, EaseFactor: 2.5, NextReviewAt: at5(t0, 3)}, second)
}

func TestFailThenRecoverScenario(t *testing.T) {
	s := newTestSRS()
	cur := models.ReviewRecord{Level: 10, EaseFactor: 2.2, NextReviewAt: 0}

	failed := s.Review(&cur, QualityFail)
	assert.Equal(t, models.ReviewRecord{Level: 0, EaseFactor: 2.0, NextReviewAt: 0}, failed)

	recovered := s.Review(&failed, QualityPass)
	assert.Equal(t, models.ReviewRecord{Level: 1, EaseFactor: 2.0, NextReviewAt: at5(t0, 1)}, recovered)
}

func TestReviewDefaultsToWallClock(t *testing.T) {
	s := NewSRS()
	before := time.Now()

	got := s.Review(nil, QualityPass)

	assert.True(t, got.DueTime(nil).After(before))
	assert.Equal(t, 5, got.DueTime(nil).Hour())
}

func TestParseQuality(t *testing.T) {
	for _, q := range []Quality{QualityFail, QualityPass} {
		got, err := ParseQuality(q.String())
		require.NoError(t, err)
		assert.Equal(t, q, got)
	}

	_, err := ParseQuality("maybe")
	assert.Error(t, err)
	assert.Equal(t, "Quality(7)", Quality(7).String())
}
