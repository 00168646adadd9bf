// Package config loads diaryfill settings from an optional YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/javajack/diaryfill"
)

// Config holds all diaryfill configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	History HistoryConfig `yaml:"history"`
	Diary   DiaryConfig   `yaml:"diary"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// HistoryConfig configures the run history. An empty RedisURL keeps the
// history in memory.
type HistoryConfig struct {
	RedisURL string `yaml:"redis_url"`
	Limit    int    `yaml:"limit"`
}

// DiaryConfig mirrors the engine options.
type DiaryConfig struct {
	DiaryMarker   string   `yaml:"diary_marker"`
	MonthMarker   string   `yaml:"month_marker"`
	DateColumn    string   `yaml:"date_column"`
	HolidayColumn string   `yaml:"holiday_column"`
	TargetColumns []string `yaml:"target_columns"`
	HolidayRule   string   `yaml:"holiday_rule"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		History: HistoryConfig{
			Limit: 100,
		},
		Diary: DiaryConfig{
			DiaryMarker:   diaryfill.DefaultDiaryMarker,
			MonthMarker:   diaryfill.DefaultMonthMarker,
			DateColumn:    diaryfill.DefaultDateColumn,
			HolidayColumn: diaryfill.DefaultHolidayColumn,
			TargetColumns: append([]string(nil), diaryfill.DefaultTargetColumns...),
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.Addr = getenv("DIARYFILL_ADDR", c.Server.Addr)
	c.Server.MaxUploadMB = getenvInt("DIARYFILL_MAX_UPLOAD_MB", c.Server.MaxUploadMB)
	c.Logging.Level = getenv("DIARYFILL_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getenv("DIARYFILL_LOG_FORMAT", c.Logging.Format)
	c.History.RedisURL = getenv("DIARYFILL_REDIS_URL", c.History.RedisURL)
	c.History.Limit = getenvInt("DIARYFILL_HISTORY_LIMIT", c.History.Limit)
	c.Diary.DiaryMarker = getenv("DIARYFILL_DIARY_MARKER", c.Diary.DiaryMarker)
	c.Diary.MonthMarker = getenv("DIARYFILL_MONTH_MARKER", c.Diary.MonthMarker)
	c.Diary.HolidayRule = getenv("DIARYFILL_HOLIDAY_RULE", c.Diary.HolidayRule)
}

// Validate checks the settings the engine does not validate itself.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q (valid: json, console)", c.Logging.Format)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("history limit must be positive, got %d", c.History.Limit)
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// FillOptions translates the diary settings to engine options.
func (c *Config) FillOptions() []diaryfill.Option {
	d := c.Diary
	opts := []diaryfill.Option{
		diaryfill.WithDiaryMarker(d.DiaryMarker),
		diaryfill.WithMonthMarker(d.MonthMarker),
		diaryfill.WithHolidayRule(d.HolidayRule),
	}
	if d.DateColumn != "" {
		opts = append(opts, diaryfill.WithDateColumn(d.DateColumn))
	}
	if d.HolidayColumn != "" {
		opts = append(opts, diaryfill.WithHolidayColumn(d.HolidayColumn))
	}
	if len(d.TargetColumns) > 0 {
		opts = append(opts, diaryfill.WithTargetColumns(d.TargetColumns...))
	}
	return opts
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
