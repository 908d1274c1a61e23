// Package conf loads the small set of core-adjacent configuration knobs:
// database path and pragma overrides, log level, and the grooming schedule.
// Request-level configuration and CLI flag parsing are out of scope (spec §1).
package conf

import (
	"maps"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vinylindex/vinylindex/log"
)

// defaultPragmas is the bit-exact engine contract from spec §6, applied on
// every connection persistence.Open opens.
var defaultPragmas = map[string]string{
	"journal_mode":        "WAL",
	"synchronous":         "NORMAL",
	"wal_autocheckpoint":  "1000",
	"automatic_index":     "1",
	"foreign_keys":        "1",
	"defer_foreign_keys":  "1",
	"encoding":            "'UTF-8'",
}

// Database holds the connection and pragma-override configuration for persistence.Open.
type Database struct {
	Path            string
	MaxOpenConns    int
	PragmaOverrides map[string]string
}

// Pragmas merges the bit-exact default pragma contract with any configured
// overrides, overrides taking precedence.
func (d Database) Pragmas() map[string]string {
	merged := make(map[string]string, len(defaultPragmas)+len(d.PragmaOverrides))
	maps.Copy(merged, defaultPragmas)
	maps.Copy(merged, d.PragmaOverrides)
	return merged
}

// Grooming holds the background maintenance job's schedule.
type Grooming struct {
	// Interval is a cron expression consumed by robfig/cron/v3, e.g. "@every 1h".
	Interval string
}

// Config is the top-level configuration this module loads.
type Config struct {
	Database Database
	LogLevel string
	Grooming Grooming
}

// Server is the process-wide configuration, populated by Load.
var Server Config

// Load reads a local .env overlay (if present) then binds viper to the
// environment, populating Server.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("VINYLINDEX")
	v.AutomaticEnv()

	v.SetDefault("database.path", "vinylindex.db")
	v.SetDefault("database.maxopenconns", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("grooming.interval", "@every 1h")

	cfg := Config{
		Database: Database{
			Path:         v.GetString("database.path"),
			MaxOpenConns: v.GetInt("database.maxopenconns"),
		},
		LogLevel: v.GetString("log.level"),
		Grooming: Grooming{Interval: v.GetString("grooming.interval")},
	}

	if err := log.SetLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	Server = cfg
	return cfg, nil
}
