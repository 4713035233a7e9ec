package bot

import (
	"math/rand"
	"time"

	"github.com/example/kanjibot/internal/study"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Default number of cards per review session
	DefaultReviewsPerSession int
	// How many answers /undo can take back
	UndoDepth int
	// Users allowed to run admin commands
	AdminUserIDs []int64
	// Location used to display due dates and schedule reviews
	Location *time.Location
	// Clock; nil means time.Now
	Now func() time.Time
	// Source for quiz option order; nil means randomly seeded
	Rand *rand.Rand
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		DefaultReviewsPerSession: 20,
		UndoDepth:                study.DefaultUndoDepth,
		Location:                 time.Local,
	}
}
