package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds the runtime settings of the bot
type Config struct {
	TelegramToken         string
	DBType                string
	DatabaseURL           string
	SQLitePath            string
	NotificationStartHour int
	NotificationEndHour   int
	ReviewsPerSession     int
	AdminUserIDs          []int64
	ImportFile            string
	Location              *time.Location
	EnableScheduler       bool
	UndoDepth             int
}

// Load reads .env (if it exists) and the environment
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit .env path
func LoadFrom(dotEnvPath string) (*Config, error) {
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "config.godotenv(%s)", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "config.os.Stat(%s)", dotEnvPath)
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SQLITE_PATH", "data/kanjibot.db")
	v.SetDefault("NOTIFICATION_START_HOUR", 7)
	v.SetDefault("NOTIFICATION_END_HOUR", 22)
	v.SetDefault("REVIEWS_PER_SESSION", 20)
	v.SetDefault("ADMIN_USER_IDS", "")
	v.SetDefault("IMPORT_FILE", "")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("ENABLE_SCHEDULER", true)
	v.SetDefault("UNDO_DEPTH", 50)
	v.AutomaticEnv()

	cfg := &Config{
		TelegramToken:         v.GetString("TELEGRAM_BOT_TOKEN"),
		DBType:                strings.ToLower(v.GetString("DB_TYPE")),
		DatabaseURL:           v.GetString("DATABASE_URL"),
		SQLitePath:            v.GetString("SQLITE_PATH"),
		NotificationStartHour: v.GetInt("NOTIFICATION_START_HOUR"),
		NotificationEndHour:   v.GetInt("NOTIFICATION_END_HOUR"),
		ReviewsPerSession:     v.GetInt("REVIEWS_PER_SESSION"),
		ImportFile:            v.GetString("IMPORT_FILE"),
		EnableScheduler:       v.GetBool("ENABLE_SCHEDULER"),
		UndoDepth:             v.GetInt("UNDO_DEPTH"),
	}

	if err := cfg.parse(v.GetString("ADMIN_USER_IDS"), v.GetString("TIMEZONE")); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parse(adminIDs, timezone string) error {
	for _, s := range strings.Split(adminIDs, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid ADMIN_USER_IDS entry %q", s)
		}
		c.AdminUserIDs = append(c.AdminUserIDs, id)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return errors.Wrapf(err, "invalid TIMEZONE %q", timezone)
	}
	c.Location = loc
	return nil
}

func (c *Config) validate() error {
	switch c.DBType {
	case "sqlite", "sqlite3", "postgres":
	default:
		return errors.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.DBType == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for postgres")
	}
	if c.NotificationStartHour < 0 || c.NotificationStartHour > 23 {
		return errors.Errorf("NOTIFICATION_START_HOUR must be 0-23, got %d", c.NotificationStartHour)
	}
	if c.NotificationEndHour < 0 || c.NotificationEndHour > 23 {
		return errors.Errorf("NOTIFICATION_END_HOUR must be 0-23, got %d", c.NotificationEndHour)
	}
	if c.NotificationStartHour > c.NotificationEndHour {
		return errors.New("NOTIFICATION_START_HOUR must not be after NOTIFICATION_END_HOUR")
	}
	if c.ReviewsPerSession <= 0 {
		return errors.Errorf("REVIEWS_PER_SESSION must be positive, got %d", c.ReviewsPerSession)
	}
	if c.UndoDepth <= 0 {
		return errors.Errorf("UNDO_DEPTH must be positive, got %d", c.UndoDepth)
	}
	return nil
}
