// Package config loads cinerank settings.
//
// Values are layered with koanf, lowest priority first:
//
//  1. built-in defaults
//  2. an optional YAML file (explicit path, $CINERANK_CONFIG, or ./cinerank.yaml)
//  3. CINERANK_* environment variables
//
// Command-line flags are applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names a config file to use instead of the default.
const ConfigPathEnvVar = "CINERANK_CONFIG"

// DefaultConfigPaths are searched in order when no path is given.
var DefaultConfigPaths = []string{"cinerank.yaml", "cinerank.yml"}

type Config struct {
	MoviesPath  string          `koanf:"movies_path"`
	RatingsPath string          `koanf:"ratings_path"`
	Output      string          `koanf:"output" validate:"oneof=text json"`
	Select      string          `koanf:"select"`
	Recommend   RecommendConfig `koanf:"recommend"`
	Log         LogConfig       `koanf:"log"`
}

type RecommendConfig struct {
	Limit int `koanf:"limit" validate:"gte=1"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled off"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

func defaultConfig() *Config {
	return &Config{
		MoviesPath:  "movies.txt",
		RatingsPath: "ratings.txt",
		Output:      "text",
		Recommend:   RecommendConfig{Limit: 3},
		Log:         LogConfig{Level: "info", Format: "console"},
	}
}

// Load builds a Config. An explicit path must exist; the default paths are
// optional.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc maps CINERANK_* variables to config paths. Anything else
// is dropped.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		"cinerank_movies":          "movies_path",
		"cinerank_ratings":         "ratings_path",
		"cinerank_output":          "output",
		"cinerank_select":          "select",
		"cinerank_recommend_limit": "recommend.limit",
		"cinerank_log_level":       "log.level",
		"cinerank_log_format":      "log.format",
	}
	return envMappings[strings.ToLower(key)]
}
