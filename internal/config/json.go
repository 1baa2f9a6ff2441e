package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// JSONConfig is the on-disk form of Config. Pointer fields distinguish
// "absent" from "zero" so that a partial file only overrides what it names.
type JSONConfig struct {
	DBDriver    *string   `json:"db_driver"`
	DBDSN       *string   `json:"db_dsn"`
	BusyTimeout *Duration `json:"busy_timeout"`

	RetryAttempts *int      `json:"retry_attempts"`
	RetryDelay    *Duration `json:"retry_delay"`

	DefaultQuota *int `json:"default_quota"`
	BcryptCost   *int `json:"bcrypt_cost"`

	Sources         map[string]string `json:"sources"`
	DefaultSource   *string           `json:"default_source"`
	RecordsTable    *string           `json:"records_table"`
	RecordsColumn   *string           `json:"records_column"`
	RecordsIDColumn *string           `json:"records_id_column"`
	SearchLimit     *int              `json:"search_limit"`
	Blacklist       []string          `json:"blacklist"`

	LogLevel  *string `json:"log_level"`
	LogFormat *string `json:"log_format"`

	ProbeTimeout       *Duration `json:"probe_timeout"`
	ProbeSlowThreshold *Duration `json:"probe_slow_threshold"`
	ReportDir          *string   `json:"report_dir"`

	S3Endpoint     *string `json:"s3_endpoint"`
	S3Region       *string `json:"s3_region"`
	S3Bucket       *string `json:"s3_bucket"`
	S3AccessKey    *string `json:"s3_access_key"`
	S3SecretKey    *string `json:"s3_secret_key"`
	S3UsePathStyle *bool   `json:"s3_use_path_style"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

// parseJSON overlays cfg with the file at path. An empty path is a no-op.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JSONConfig) apply(cfg *Config) {
	setString(&cfg.DBDriver, jc.DBDriver)
	setString(&cfg.DBDSN, jc.DBDSN)
	if jc.BusyTimeout != nil {
		cfg.BusyTimeout = jc.BusyTimeout.Duration
	}

	setInt(&cfg.RetryAttempts, jc.RetryAttempts)
	if jc.RetryDelay != nil {
		cfg.RetryDelay = jc.RetryDelay.Duration
	}

	setInt(&cfg.DefaultQuota, jc.DefaultQuota)
	setInt(&cfg.BcryptCost, jc.BcryptCost)

	if jc.Sources != nil {
		cfg.Sources = jc.Sources
	}
	setString(&cfg.DefaultSource, jc.DefaultSource)
	setString(&cfg.RecordsTable, jc.RecordsTable)
	setString(&cfg.RecordsColumn, jc.RecordsColumn)
	setString(&cfg.RecordsIDColumn, jc.RecordsIDColumn)
	setInt(&cfg.SearchLimit, jc.SearchLimit)
	if jc.Blacklist != nil {
		cfg.Blacklist = jc.Blacklist
	}

	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.ProbeTimeout != nil {
		cfg.ProbeTimeout = jc.ProbeTimeout.Duration
	}
	if jc.ProbeSlowThreshold != nil {
		cfg.ProbeSlowThreshold = jc.ProbeSlowThreshold.Duration
	}
	setString(&cfg.ReportDir, jc.ReportDir)

	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	if jc.S3UsePathStyle != nil {
		cfg.S3UsePathStyle = *jc.S3UsePathStyle
	}
}
