// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-release-stats/internal/model"
)

func TestLoadConfig(t *testing.T) {
	t.Run("applies defaults and parses the repo list", func(t *testing.T) {
		viper.Reset()
		t.Setenv("REPOS", "octo/app,acme/tool")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, []string{"octo/app", "acme/tool"}, cfg.Repos)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "releases.csv", cfg.OutputPath)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, 5*time.Minute, cfg.FetchTimeout)
		assert.Equal(t, model.BasisPublishedAt, cfg.TimeBasis)
		assert.False(t, cfg.WorkdayOnly)
		assert.Empty(t, cfg.GithubToken, "token is optional")
	})

	t.Run("accepts the created_at basis", func(t *testing.T) {
		viper.Reset()
		t.Setenv("REPOS", "octo/app")
		t.Setenv("TIME_BASIS", "created_at")
		t.Setenv("WORKDAY_ONLY", "true")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, model.BasisCreatedAt, cfg.TimeBasis)
		assert.True(t, cfg.WorkdayOnly)
	})

	t.Run("rejects an unknown basis", func(t *testing.T) {
		viper.Reset()
		t.Setenv("REPOS", "octo/app")
		t.Setenv("TIME_BASIS", "updated_at")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "TIME_BASIS")
	})

	t.Run("requires at least one repository", func(t *testing.T) {
		viper.Reset()

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "REPOS")
	})
}
