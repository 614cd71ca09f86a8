// Package config handles report configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mbd888/actionreport/internal/actions"
	"github.com/mbd888/actionreport/internal/report"
)

// Config holds all report configuration
type Config struct {
	// Input
	ActionsFile  string // JSON report path, "-" for stdin
	DatabaseURL  string // PostgreSQL source, used when ActionsFile is empty
	ActionsTable string
	SubjectField string // JSON key holding the creator/affiliate id

	// Criteria
	Start      string
	End        string
	SubjectID  string
	HasSubject bool // REPORT_SUBJECT_ID present, even if empty
	SampleSize int
	Timezone   string

	// Logging
	LogLevel  string
	LogFormat string

	// Observability
	MetricsFile  string
	OTLPEndpoint string
}

const (
	DefaultActionsTable = "actions"
	DefaultSubjectField = "CreatorId"
	DefaultSampleSize   = report.DefaultSampleSize
	DefaultTimezone     = "UTC"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
// Values are not checked here: callers apply their overrides and then call
// Validate once on the final configuration.
func Load() *Config {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	subject, hasSubject := os.LookupEnv("REPORT_SUBJECT_ID")

	return &Config{
		ActionsFile:  os.Getenv("ACTIONS_FILE"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		ActionsTable: getEnv("ACTIONS_TABLE", DefaultActionsTable),
		SubjectField: getEnv("ACTIONS_SUBJECT_FIELD", DefaultSubjectField),
		Start:        os.Getenv("REPORT_START"),
		End:          os.Getenv("REPORT_END"),
		SubjectID:    subject,
		HasSubject:   hasSubject,
		SampleSize:   int(getEnvInt64("REPORT_SAMPLE_SIZE", DefaultSampleSize)),
		Timezone:     getEnv("REPORT_TIMEZONE", DefaultTimezone),
		LogLevel:     getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:    getEnv("LOG_FORMAT", DefaultLogFormat),
		MetricsFile:  os.Getenv("METRICS_FILE"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// Validate checks that the configuration describes a runnable report
func (c *Config) Validate() error {
	if c.SampleSize < 0 {
		return fmt.Errorf("REPORT_SAMPLE_SIZE must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Criteria(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; an empty value means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Criteria converts the configured options into report criteria.
func (c *Config) Criteria() (report.Criteria, error) {
	loc, err := c.Location()
	if err != nil {
		return report.Criteria{}, err
	}
	dr, err := report.NewDateRange(c.Start, c.End, loc)
	if err != nil {
		return report.Criteria{}, fmt.Errorf("REPORT_START/REPORT_END: %w", err)
	}
	crit := report.Criteria{DateRange: dr}
	if c.HasSubject {
		crit = crit.WithSubject(c.SubjectID)
	}
	return crit, nil
}

// Fields returns the JSON keys used to decode a report document.
func (c *Config) Fields() actions.Fields {
	f := actions.DefaultFields()
	if c.SubjectField != "" {
		f.Subject = c.SubjectField
	}
	return f
}

// HasInput reports whether any record source is configured.
func (c *Config) HasInput() bool {
	return c.ActionsFile != "" || c.DatabaseURL != ""
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
