// Package config loads service configuration from, in increasing precedence,
// a YAML file, STUDYHALL_-prefixed environment variables, and command-line
// flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config is the full service configuration.
type Config struct {
	Addr             string  `koanf:"addr" validate:"required"`
	DBPath           string  `koanf:"db_path" validate:"required"`
	ReposDir         string  `koanf:"repos_dir" validate:"required"`
	ReviewQueueLimit int     `koanf:"review_queue_limit" validate:"gt=0"`
	MatchLimit       int     `koanf:"match_limit" validate:"gt=0"`
	HoursPerDay      float64 `koanf:"hours_per_day" validate:"gt=0"`
}

// Flags returns the flag set the service accepts. Flag defaults double as the
// configuration defaults.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("studyhall", pflag.ContinueOnError)
	f.String("config", "", "Path to a YAML config file")
	f.String("addr", ":8080", "Address for the HTTP server to listen on")
	f.String("db_path", "studyhall.db", "Path to the SQLite database file")
	f.String("repos_dir", "repos", "Directory where git deck sources are mirrored")
	f.Int("review_queue_limit", 20, "Maximum cards in the review queue")
	f.Int("match_limit", 10, "Maximum candidates returned by partner matching")
	f.Float64("hours_per_day", 4, "Default daily study-hour budget for plans")
	return f
}

// Load builds the configuration from the parsed flag set, layering in the
// config file (if given) and environment.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := flags.GetString("config"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// STUDYHALL_DB_PATH -> db_path
	err := k.Load(env.Provider("STUDYHALL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "STUDYHALL_"))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Passing k lets the provider keep file/env values for flags the user
	// did not set explicitly, while flag defaults fill the rest.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
