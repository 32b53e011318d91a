package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Dataset source (https://..., file://..., plain path or postgres://...)
	DatasetSource string

	// Databases
	ArchiveDBPath string
	AppDBPath     string

	// API Server
	APIPort string
	APIHost string

	// Logging
	LogLevel string

	// Remote fetch
	HTTPTimeoutSeconds int

	// Worker Pool
	WorkerPoolSize int

	// Queries from YAML (used for postgres sources)
	Queries QueryConfig

	// Dashboard parameters
	Dashboard DashboardConfig

	// Chart rendering
	Charts ChartConfig `mapstructure:"charts"`

	// Mock data settings
	MockData MockDataConfig `mapstructure:"mock_data"`

	// Scheduler
	Scheduler SchedulerConfig `mapstructure:"scheduler"`

	// Retention
	Retention RetentionConfig `mapstructure:"retention"`
}

// RetentionConfig holds archive retention settings
type RetentionConfig struct {
	ArchiveDays int    `mapstructure:"archive_days"`
	JobDays     int    `mapstructure:"job_days"`
	CleanupTime string `mapstructure:"cleanup_time"` // Format: "15:04"
}

// QueryConfig holds SQL query templates
type QueryConfig struct {
	WorkOrders      string `mapstructure:"work_orders"`
	WorkOrdersTable string `mapstructure:"work_orders_table"`
}

// DashboardConfig holds dashboard parameters
type DashboardConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
	TopBreachLimit  int `mapstructure:"top_breach_limit"`
}

// MockDataConfig holds mock data generation settings
type MockDataConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Records        int      `mapstructure:"records"`
	TimeRangeDays  int      `mapstructure:"time_range_days"`
	Seed           int64    `mapstructure:"seed"`
	Priorities     []string `mapstructure:"priorities"`
	Assignees      []string `mapstructure:"assignees"`
	SubCategories  []string `mapstructure:"sub_categories"`
	RespondRate    float64  `mapstructure:"respond_rate"`
	ResolutionRate float64  `mapstructure:"resolution_rate"`
}

// LoadConfig loads configuration from .env and config.yaml
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		// .env file is optional, only warn
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	// Load YAML configuration
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..") // For when running from subdirectories

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	config := &Config{
		// Load from environment variables
		DatasetSource:      getEnv("DATASET_SOURCE", "./data/workorders.csv"),
		ArchiveDBPath:      getEnv("ARCHIVE_DB_PATH", "./data/archive.duckdb"),
		AppDBPath:          getEnv("APP_DB_PATH", "./data/app.db"),
		APIPort:            getEnv("API_PORT", "8080"),
		APIHost:            getEnv("API_HOST", "0.0.0.0"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPTimeoutSeconds: getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30),
		WorkerPoolSize:     getEnvAsInt("WORKER_POOL_SIZE", 4),
	}

	// Load from YAML
	if err := viper.UnmarshalKey("queries", &config.Queries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queries: %w", err)
	}

	if err := viper.UnmarshalKey("dashboard", &config.Dashboard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dashboard config: %w", err)
	}

	if err := viper.UnmarshalKey("charts", &config.Charts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal charts config: %w", err)
	}

	if err := viper.UnmarshalKey("mock_data", &config.MockData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mock_data config: %w", err)
	}

	if err := viper.UnmarshalKey("scheduler", &config.Scheduler); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scheduler config: %w", err)
	}

	if err := viper.UnmarshalKey("retention", &config.Retention); err != nil {
		return nil, fmt.Errorf("failed to unmarshal retention config: %w", err)
	}

	// Validate required fields
	if config.DatasetSource == "" {
		return nil, fmt.Errorf("DATASET_SOURCE is required")
	}
	if config.Dashboard.DefaultPageSize <= 0 {
		config.Dashboard.DefaultPageSize = 100
	}
	if config.Dashboard.MaxPageSize <= 0 {
		config.Dashboard.MaxPageSize = 1000
	}
	if config.Dashboard.TopBreachLimit <= 0 {
		config.Dashboard.TopBreachLimit = 10
	}

	return config, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
