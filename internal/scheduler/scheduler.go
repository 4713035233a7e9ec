package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/kanjibot/pkg/models"
)

// Default notification window
const (
	DefaultNotificationStartHour = 7
	DefaultNotificationEndHour   = 22
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     UserSource
	due       DueCounter

	startHour int
	endHour   int
	now       func() time.Time
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(userID int64, count int) error
}

// UserSource lists users who asked for a reminder at a given hour
type UserSource interface {
	GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// DueCounter counts the items a user has due at a point in time
type DueCounter interface {
	CountDue(ctx context.Context, userID int64, now time.Time) (int, error)
}

// Config holds the reminder window and the clock
type Config struct {
	StartHour int
	EndHour   int
	Location  *time.Location // nil means time.Local
	Now       func() time.Time
}

// New creates a new scheduler instance
func New(notifier Notifier, users UserSource, due DueCounter, cfg Config) *Scheduler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		notifier:  notifier,
		users:     users,
		due:       due,
		startHour: cfg.StartHour,
		endHour:   cfg.EndHour,
		now:       func() time.Time { return now().In(loc) },
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	// Hourly check for users who need notifications, on the hour
	_, err := s.scheduler.Every(1).Hour().StartAt(s.nextHour()).SingletonMode().Do(s.checkAndSendReminders)
	if err != nil {
		return err
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) nextHour() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location())
}

// checkAndSendReminders checks for users who need reminders and sends them
func (s *Scheduler) checkAndSendReminders() {
	ctx := context.Background()
	now := s.now()
	currentHour := now.Hour()

	if currentHour < s.startHour || currentHour > s.endHour {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, s.startHour, s.endHour)
		return
	}

	users, err := s.users.GetUsersForNotification(ctx, currentHour)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	for _, user := range users {
		if err := s.remind(ctx, user, now); err != nil {
			log.Printf("Error sending reminder to user %d: %v", user.ID, err)
		}
	}
}

func (s *Scheduler) remind(ctx context.Context, user models.User, now time.Time) error {
	count, err := s.due.CountDue(ctx, user.ID, now)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	// Don't announce more than one session's worth
	if user.ReviewsPerSession > 0 && count > user.ReviewsPerSession {
		count = user.ReviewsPerSession
	}
	return s.notifier.SendReminders(user.ID, count)
}

// RunManualCheck forces a check for a specific user
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.remind(ctx, *user, s.now())
}
