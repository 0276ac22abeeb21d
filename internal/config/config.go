// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github-release-stats/internal/model"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel        string          `mapstructure:"LOG_LEVEL"`
	GithubToken     string          `mapstructure:"GITHUB_TOKEN"`
	Repos           []string        `mapstructure:"REPOS"`
	OutputPath      string          `mapstructure:"OUTPUT_PATH"`
	StatsOutputPath string          `mapstructure:"STATS_OUTPUT_PATH"`
	DBURL           string          `mapstructure:"DB_URL"`
	HTTPAddr        string          `mapstructure:"HTTP_ADDR"`
	FetchTimeout    time.Duration   `mapstructure:"FETCH_TIMEOUT"`
	TimeBasisRaw    string          `mapstructure:"TIME_BASIS"`
	WorkdayOnly     bool            `mapstructure:"WORKDAY_ONLY"`
	TimeBasis       model.TimeBasis `mapstructure:"-"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values. Keys without a meaningful default still get one
	// registered so AutomaticEnv can resolve them during Unmarshal.
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("GITHUB_TOKEN", "")
	viper.SetDefault("REPOS", []string{})
	viper.SetDefault("STATS_OUTPUT_PATH", "")
	viper.SetDefault("DB_URL", "")
	viper.SetDefault("OUTPUT_PATH", "releases.csv")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("FETCH_TIMEOUT", "5m")
	viper.SetDefault("TIME_BASIS", string(model.BasisPublishedAt))
	viper.SetDefault("WORKDAY_ONLY", false)

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// The basis timestamp is a single run-wide choice; classification and
	// weekend filtering never vary per call site.
	switch model.TimeBasis(cfg.TimeBasisRaw) {
	case model.BasisPublishedAt, model.BasisCreatedAt:
		cfg.TimeBasis = model.TimeBasis(cfg.TimeBasisRaw)
	default:
		return nil, fmt.Errorf("TIME_BASIS must be %q or %q", model.BasisPublishedAt, model.BasisCreatedAt)
	}

	// Validate required fields. GITHUB_TOKEN is optional: unauthenticated
	// requests work with lower rate limits.
	if len(cfg.Repos) == 0 {
		return nil, errors.New("REPOS must contain at least one repository")
	}
	if cfg.FetchTimeout <= 0 {
		return nil, errors.New("FETCH_TIMEOUT must be a positive duration")
	}

	return &cfg, nil
}
