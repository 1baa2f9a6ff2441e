// Package config assembles the portal's runtime settings.
//
// Sources are applied in order, later ones winning:
//
//  1. LoadDefaults
//  2. a JSON file (--config)
//  3. GOPHPORTAL_* environment variables, optionally read from a .env file
//  4. command-line flags that were set explicitly
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/dmitrijs2005/gophportal/internal/dbx"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for every gophportal command.
type Config struct {
	// Account store.
	DBDriver    string
	DBDSN       string
	BusyTimeout time.Duration

	// Lock retry policy.
	RetryAttempts int
	RetryDelay    time.Duration

	DefaultQuota int
	BcryptCost   int

	// Record sources: name -> SQLite file.
	Sources         map[string]string
	DefaultSource   string
	RecordsTable    string
	RecordsColumn   string
	RecordsIDColumn string
	SearchLimit     int
	Blacklist       []string

	LogLevel  string
	LogFormat string

	// Probe.
	ProbeTimeout       time.Duration
	ProbeSlowThreshold time.Duration
	ReportDir          string

	// Report upload.
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBDriver = "sqlite"
	c.DBDSN = "user_data.db"
	c.BusyTimeout = common.DefaultBusyTimeout

	c.RetryAttempts = 5
	c.RetryDelay = time.Second

	c.DefaultQuota = common.DefaultQuota
	c.BcryptCost = 10

	c.Sources = map[string]string{"newest": "db.db"}
	c.DefaultSource = "newest"
	c.RecordsTable = "url_mail_pass"
	c.RecordsColumn = "url_mail_pass"
	c.RecordsIDColumn = "rowid"
	c.SearchLimit = common.DefaultSearchLimit
	c.Blacklist = nil

	c.LogLevel = "info"
	c.LogFormat = "text"

	c.ProbeTimeout = 5 * time.Second
	c.ProbeSlowThreshold = 4 * time.Second
	c.ReportDir = "."

	c.S3Region = "us-east-1"
	c.S3UsePathStyle = true
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if _, err := dbx.DialectForDriver(c.DBDriver); err != nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("db dsn is empty: %w", common.ErrValidation)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1: %w", common.ErrValidation)
	}
	if c.DefaultQuota < 0 {
		return fmt.Errorf("default quota must not be negative: %w", common.ErrValidation)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d: %w", bcrypt.MinCost, bcrypt.MaxCost, common.ErrValidation)
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("search limit must be at least 1: %w", common.ErrValidation)
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("no record sources configured: %w", common.ErrValidation)
	}
	if c.DefaultSource != "" {
		if _, ok := c.Sources[c.DefaultSource]; !ok {
			return fmt.Errorf("default source %q is not configured: %w", c.DefaultSource, common.ErrValidation)
		}
	}
	return nil
}

// Load builds a Config from defaults, the JSON file at path (if any) and the
// environment. Flags are applied afterwards with ApplyFlags.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, path); err != nil {
		return nil, err
	}
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}
