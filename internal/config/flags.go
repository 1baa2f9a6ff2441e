package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by all commands.
const (
	FlagConfig      = "config"
	FlagDBDriver    = "db-driver"
	FlagDBDSN       = "db"
	FlagBusyTimeout = "busy-timeout"
	FlagRetries     = "retries"
	FlagRetryDelay  = "retry-delay"
	FlagQuota       = "default-quota"
	FlagSource      = "source"
	FlagSources     = "sources"
	FlagBlacklist   = "blacklist"
	FlagLogLevel    = "log-level"
	FlagLogFormat   = "log-format"
)

// RegisterFlags defines the global flags on fs. Flag defaults are the
// built-in defaults; only flags the user actually sets override the JSON
// file and environment.
func RegisterFlags(fs *pflag.FlagSet) {
	d := &Config{}
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON config file")
	fs.String(FlagDBDriver, d.DBDriver, "account store driver (sqlite or pgx)")
	fs.String(FlagDBDSN, d.DBDSN, "account store DSN or SQLite file")
	fs.Duration(FlagBusyTimeout, d.BusyTimeout, "SQLite busy timeout")
	fs.Int(FlagRetries, d.RetryAttempts, "attempts for a locked store operation")
	fs.Duration(FlagRetryDelay, d.RetryDelay, "delay between attempts")
	fs.Int(FlagQuota, d.DefaultQuota, "queries granted to a new user")
	fs.String(FlagSource, d.DefaultSource, "default record source")
	fs.StringToString(FlagSources, d.Sources, "record sources as name=path pairs")
	fs.StringSlice(FlagBlacklist, d.Blacklist, "keywords rejected in search terms")
	fs.String(FlagLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(FlagLogFormat, d.LogFormat, "log format (text or json)")
}

// ConfigPath returns the --config value.
func ConfigPath(fs *pflag.FlagSet) string {
	p, _ := fs.GetString(FlagConfig)
	return p
}

// ApplyFlags copies explicitly set flags into cfg.
func ApplyFlags(fs *pflag.FlagSet, cfg *Config) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagDBDriver:
			cfg.DBDriver = f.Value.String()
		case FlagDBDSN:
			cfg.DBDSN = f.Value.String()
		case FlagBusyTimeout:
			cfg.BusyTimeout, err = fs.GetDuration(f.Name)
		case FlagRetries:
			cfg.RetryAttempts, err = fs.GetInt(f.Name)
		case FlagRetryDelay:
			cfg.RetryDelay, err = fs.GetDuration(f.Name)
		case FlagQuota:
			cfg.DefaultQuota, err = fs.GetInt(f.Name)
		case FlagSource:
			cfg.DefaultSource = f.Value.String()
		case FlagSources:
			cfg.Sources, err = fs.GetStringToString(f.Name)
		case FlagBlacklist:
			cfg.Blacklist, err = fs.GetStringSlice(f.Name)
		case FlagLogLevel:
			cfg.LogLevel = f.Value.String()
		case FlagLogFormat:
			cfg.LogFormat = f.Value.String()
		}
	})
	return err
}
