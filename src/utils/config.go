package utils

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSplitSize     = 50
	defaultExpandHorizon = 8760 * time.Hour
	defaultLogLevel      = slog.LevelInfo
)

type Config struct {
	splitSize int
	logLevel  slog.Level

	location      *time.Location
	locationSet   bool
	expandHorizon time.Duration

	metricsFile string
}

func NewConfig() *Config {
	location, locationSet := loadLocation()
	return &Config{
		splitSize: func() int {
			raw := os.Getenv("SPLIT_SIZE")
			if raw == "" {
				return defaultSplitSize
			}
			size, err := strconv.Atoi(raw)
			if err != nil || size <= 0 {
				slog.Warn("invalid SPLIT_SIZE, using default", "value", raw, "default", defaultSplitSize)
				return defaultSplitSize
			}
			slog.Debug("env", "SPLIT_SIZE", size)
			return size
		}(),
		logLevel: func() slog.Level {
			raw := os.Getenv("LOG_LEVEL")
			if raw == "" {
				return defaultLogLevel
			}
			level, ok := ParseLogLevel(raw)
			if !ok {
				slog.Warn("invalid LOG_LEVEL, using default", "value", raw, "default", defaultLogLevel)
				return defaultLogLevel
			}
			return level
		}(),

		location:    location,
		locationSet: locationSet,
		expandHorizon: func() time.Duration {
			raw := os.Getenv("ICS_EXPAND_HORIZON")
			if raw == "" {
				return defaultExpandHorizon
			}
			duration, err := time.ParseDuration(raw)
			if err != nil || duration <= 0 {
				slog.Warn("invalid ICS_EXPAND_HORIZON, using default", "value", raw, "default", defaultExpandHorizon)
				return defaultExpandHorizon
			}
			slog.Debug("env", "ICS_EXPAND_HORIZON", raw, "duration", duration)
			return duration
		}(),

		metricsFile: func() string {
			metricsFile := strings.TrimSpace(os.Getenv("METRICS_FILE"))
			if metricsFile != "" {
				slog.Debug("env", "METRICS_FILE", metricsFile)
			}
			return metricsFile
		}(),
	}
}

// TIMEZONE env, the local timezone when unset or invalid. The flag tells
// whether TIMEZONE picked the location.
func loadLocation() (*time.Location, bool) {
	timezoneStr := os.Getenv("TIMEZONE")
	switch timezoneStr {
	case "":
		return time.Local, false
	case "UTC":
		return time.UTC, true
	}
	loc, err := time.LoadLocation(timezoneStr)
	if err != nil {
		slog.Warn("invalid TIMEZONE, using local timezone", "timezone", timezoneStr, "error", err)
		return time.Local, false
	}
	slog.Debug("env", "TIMEZONE", timezoneStr)
	return loc, true
}

// Parse a level name as used by LOG_LEVEL. Case insensitive.
func ParseLogLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return defaultLogLevel, false
}

// Get SPLIT_SIZE env, default to 50
func (c *Config) GetSplitSize() int {
	return c.splitSize
}

// Get LOG_LEVEL env, default to info
func (c *Config) GetLogLevel() slog.Level {
	return c.logLevel
}

// Get TIMEZONE env, default to the local timezone
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Whether the location was chosen explicitly, through TIMEZONE or SetLocation
func (c *Config) IsLocationSet() bool {
	return c.locationSet
}

// Get ICS_EXPAND_HORIZON env, default to one year
func (c *Config) GetExpandHorizon() time.Duration {
	return c.expandHorizon
}

// Get METRICS_FILE env, empty when metrics are not written
func (c *Config) GetMetricsFile() string {
	return c.metricsFile
}

func (c *Config) SetLogLevel(level slog.Level) {
	c.logLevel = level
}

func (c *Config) SetLocation(loc *time.Location) {
	c.location = loc
	c.locationSet = true
}

func (c *Config) SetMetricsFile(path string) {
	c.metricsFile = path
}
