package logging

import (
	"log/slog"
	"os"
)

const (
	// KeyError is the log key that error messages are reported under.
	KeyError = "err"

	// KeyDal is the log key that identifies a data access layer.
	KeyDal = "dal"

	// KeyAppName is the log key that identifies the application.
	KeyAppName = "app"

	// KeyAction is the log key that identifies a ticket action.
	KeyAction = "action"

	// KeyChannel is the log key for a channel ID.
	KeyChannel = "channel_id"

	// KeyGuild is the log key for a guild ID.
	KeyGuild = "guild_id"

	// KeyUser is the log key for a user ID.
	KeyUser = "user_id"
)

// Name is the name of the application that the logger reports under.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the application name appended to every record.
	name Name

	// level is the minimum level that is logged.
	level slog.Level
}

// NewConfig creates a new logging configuration for the named application.
func NewConfig(name Name) *Config {
	level := slog.LevelInfo
	if os.Getenv("LOG_DEBUG") == "true" {
		level = slog.LevelDebug
	}
	return &Config{
		name:  name,
		level: level,
	}
}

// CommonLogger creates the logger used across the application. All records
// carry the application name.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.level,
	})
	l := slog.New(h).With(slog.String(KeyAppName, string(c.name)))
	slog.SetDefault(l)
	return l, nil
}
