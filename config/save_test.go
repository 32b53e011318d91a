package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `dashboard:
  default_page_size: 100
  max_page_size: 1000
  top_breach_limit: 10
scheduler:
  enabled: false
  interval_minutes: 60
`

// pointViperAt loads a throwaway config file so WriteConfig has a target.
func pointViperAt(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o644))

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	return path
}

func TestUpdateDashboardSettings(t *testing.T) {
	path := pointViperAt(t)

	cfg := &Config{}
	require.NoError(t, cfg.UpdateDashboardSettings(50, 500, 5))

	assert.Equal(t, 50, cfg.Dashboard.DefaultPageSize)
	assert.Equal(t, 500, cfg.Dashboard.MaxPageSize)
	assert.Equal(t, 5, cfg.Dashboard.TopBreachLimit)

	// The new values survive a re-read of the file.
	viper.Reset()
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	assert.Equal(t, 50, viper.GetInt("dashboard.default_page_size"))
	assert.Equal(t, 500, viper.GetInt("dashboard.max_page_size"))
	assert.Equal(t, 5, viper.GetInt("dashboard.top_breach_limit"))
}

func TestUpdateSchedulerSettings(t *testing.T) {
	path := pointViperAt(t)

	cfg := &Config{}
	require.NoError(t, cfg.UpdateSchedulerSettings(true, 15))

	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15, cfg.Scheduler.IntervalMinutes)

	viper.Reset()
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	assert.True(t, viper.GetBool("scheduler.enabled"))
	assert.Equal(t, 15, viper.GetInt("scheduler.interval_minutes"))
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	assert.Equal(t, "value", getEnv("TEST_STR", "fallback"))
	assert.Equal(t, "fallback", getEnv("TEST_STR_MISSING", "fallback"))

	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, getEnvAsInt("TEST_INT", 7))
	t.Setenv("TEST_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("TEST_INT", 7))
	assert.Equal(t, 7, getEnvAsInt("TEST_INT_MISSING", 7))
}
