package models

// User represents a Telegram user studying with the bot
type User struct {
	ID                  int64  `json:"id" db:"telegram_id"` // Telegram User ID
	Username            string `json:"username" db:"username"`
	FirstName           string `json:"first_name" db:"first_name"`
	NotificationEnabled bool   `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int    `json:"notification_hour" db:"notification_hour"` // Hour of day for reminders (0-23)
	ReviewsPerSession   int    `json:"reviews_per_session" db:"reviews_per_session"`
	CreatedAt           int64  `json:"created_at" db:"created_at"`
}
