package config

import (
	"sync"

	"github.com/spf13/viper"
)

var configMutex sync.Mutex

// UpdateDashboardSettings updates dashboard settings and saves to file
func (c *Config) UpdateDashboardSettings(defaultPage, maxPage, topBreach int) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	c.Dashboard.DefaultPageSize = defaultPage
	c.Dashboard.MaxPageSize = maxPage
	c.Dashboard.TopBreachLimit = topBreach

	viper.Set("dashboard.default_page_size", defaultPage)
	viper.Set("dashboard.max_page_size", maxPage)
	viper.Set("dashboard.top_breach_limit", topBreach)

	return viper.WriteConfig()
}

// UpdateSchedulerSettings updates scheduler settings and saves to file
func (c *Config) UpdateSchedulerSettings(enabled bool, intervalMinutes int) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	c.Scheduler.Enabled = enabled
	c.Scheduler.IntervalMinutes = intervalMinutes

	viper.Set("scheduler.enabled", enabled)
	viper.Set("scheduler.interval_minutes", intervalMinutes)

	return viper.WriteConfig()
}
