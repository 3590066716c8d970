package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all report settings, populated from environment variables.
type Config struct {
	InputPath    string
	ReportPath   string // "-" writes to stdout
	ReportFormat string
	ReportTitle  string

	PlotDir   string
	PlotFiles []string

	// Optional sinks. Empty values disable them.
	TableExportDir string
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaTopic     string
	ArchiveDriver  string
	ArchiveDSN     string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

const defaultPlotFiles = "temperature_trend.png,monthly_rainfall.png,humidity_distribution.png"

// Load reads configuration from environment variables, applying defaults where unset.
// A dotenv file (DOTENV_PATH, default ".env") is read first when present; variables
// already set in the environment take precedence over it.
func Load() (*Config, error) {
	if err := loadDotEnv(sharedcfg.EnvOrDefault("DOTENV_PATH", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPath:       sharedcfg.EnvOrDefault("INPUT_PATH", "data/sample/weather_2023.csv"),
		ReportPath:      sharedcfg.EnvOrDefault("REPORT_PATH", "weather_report.md"),
		ReportFormat:    strings.ToLower(sharedcfg.EnvOrDefault("REPORT_FORMAT", "markdown")),
		ReportTitle:     sharedcfg.EnvOrDefault("REPORT_TITLE", "Weather Data Analysis Report"),
		PlotDir:         sharedcfg.EnvOrDefault("PLOT_DIR", "plots"),
		PlotFiles:       splitList(sharedcfg.EnvOrDefault("PLOT_FILES", defaultPlotFiles)),
		TableExportDir:  os.Getenv("TABLE_EXPORT_DIR"),
		KafkaEnabled:    kafkaEnabled,
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "weather-aggregates"),
		ArchiveDriver:   sharedcfg.EnvOrDefault("ARCHIVE_DRIVER", "sqlite3"),
		ArchiveDSN:      os.Getenv("ARCHIVE_DSN"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that may also be changed after Load, e.g. by CLI flags.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("INPUT_PATH is required")
	}
	if c.ReportPath == "" {
		return errors.New("REPORT_PATH is required")
	}
	switch c.ReportFormat {
	case "markdown", "md", "json":
	default:
		return fmt.Errorf("invalid REPORT_FORMAT %q (allowed: markdown, json)", c.ReportFormat)
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if c.ArchiveDSN != "" {
		switch c.ArchiveDriver {
		case "sqlite3", "postgres":
		default:
			return fmt.Errorf("invalid ARCHIVE_DRIVER %q (allowed: sqlite3, postgres)", c.ArchiveDriver)
		}
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, s)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
