package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "GOPHPORTAL_"

// Seams for tests.
var (
	lookupEnv  = os.LookupEnv
	dotEnvFile = ".env"
)

// loadDotEnv copies variables from .env into the process environment.
// Variables that are already set keep their value. A missing file is fine.
func loadDotEnv() error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotEnvFile, err)
	}
	return nil
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.lookup(envPrefix + key); ok {
		*dst = v
	}
}

func (r *envReader) integer(key string, dst *int) {
	v, ok := r.lookup(envPrefix + key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return
	}
	*dst = n
}

func (r *envReader) boolean(key string, dst *bool) {
	v, ok := r.lookup(envPrefix + key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return
	}
	*dst = b
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := r.lookup(envPrefix + key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return
	}
	*dst = d
}

func (r *envReader) list(key string, dst *[]string) {
	if v, ok := r.lookup(envPrefix + key); ok {
		*dst = splitList(v)
	}
}

func (r *envReader) sources(key string, dst *map[string]string) {
	v, ok := r.lookup(envPrefix + key)
	if !ok {
		return
	}
	m, err := ParseSources(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return
	}
	*dst = m
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseSources parses "name=path,name2=path2".
func ParseSources(s string) (map[string]string, error) {
	m := make(map[string]string)
	for _, item := range splitList(s) {
		name, path, ok := strings.Cut(item, "=")
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("bad source %q, want name=path", item)
		}
		m[name] = path
	}
	return m, nil
}

// parseEnv overlays cfg with GOPHPORTAL_* variables.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	r := &envReader{lookup: lookup}

	r.str("DB_DRIVER", &cfg.DBDriver)
	r.str("DB_DSN", &cfg.DBDSN)
	r.duration("BUSY_TIMEOUT", &cfg.BusyTimeout)

	r.integer("RETRY_ATTEMPTS", &cfg.RetryAttempts)
	r.duration("RETRY_DELAY", &cfg.RetryDelay)

	r.integer("DEFAULT_QUOTA", &cfg.DefaultQuota)
	r.integer("BCRYPT_COST", &cfg.BcryptCost)

	r.sources("SOURCES", &cfg.Sources)
	r.str("DEFAULT_SOURCE", &cfg.DefaultSource)
	r.str("RECORDS_TABLE", &cfg.RecordsTable)
	r.str("RECORDS_COLUMN", &cfg.RecordsColumn)
	r.str("RECORDS_ID_COLUMN", &cfg.RecordsIDColumn)
	r.integer("SEARCH_LIMIT", &cfg.SearchLimit)
	r.list("BLACKLIST", &cfg.Blacklist)

	r.str("LOG_LEVEL", &cfg.LogLevel)
	r.str("LOG_FORMAT", &cfg.LogFormat)

	r.duration("PROBE_TIMEOUT", &cfg.ProbeTimeout)
	r.duration("PROBE_SLOW_THRESHOLD", &cfg.ProbeSlowThreshold)
	r.str("REPORT_DIR", &cfg.ReportDir)

	r.str("S3_ENDPOINT", &cfg.S3Endpoint)
	r.str("S3_REGION", &cfg.S3Region)
	r.str("S3_BUCKET", &cfg.S3Bucket)
	r.str("S3_ACCESS_KEY", &cfg.S3AccessKey)
	r.str("S3_SECRET_KEY", &cfg.S3SecretKey)
	r.boolean("S3_USE_PATH_STYLE", &cfg.S3UsePathStyle)

	return errors.Join(r.errs...)
}
