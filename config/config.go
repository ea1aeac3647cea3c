package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds all database configuration
type DatabaseConfig struct {
	Driver         string         `yaml:"driver"`
	MySQL          MySQLConfig    `yaml:"mysql"`
	PostgreSQL     PostgresConfig `yaml:"postgres"`
	SQLite         SQLiteConfig   `yaml:"sqlite"`
	ConnectionPool PoolConfig     `yaml:"connection_pool"`
}

// MySQLConfig holds MySQL specific configuration
type MySQLConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	DBName    string `yaml:"dbname"`
	Charset   string `yaml:"charset"`
	ParseTime bool   `yaml:"parse_time"`
	Loc       string `yaml:"loc"`
}

// PostgresConfig holds PostgreSQL specific configuration
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	TimeZone string `yaml:"timezone"`
}

// SQLiteConfig holds SQLite specific configuration
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PoolConfig holds connection pool configuration
type PoolConfig struct {
	MaxIdleConns    int `yaml:"max_idle_conns"`
	MaxOpenConns    int `yaml:"max_open_conns"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime"`
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	LogFile      string `yaml:"log_file"`
	LogToConsole bool   `yaml:"log_to_console"`
	LogLevel     string `yaml:"log_level"`
}

// SourceConfig holds the external weather source configuration.
// APIKey and BaseURL fall back to the OPENWEATHER_API_KEY and
// OPENWEATHER_BASE_URL environment variables when empty.
type SourceConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// CityConfig is one city the scheduler fetches on each interval.
type CityConfig struct {
	City        string `yaml:"city"`
	CountryCode string `yaml:"country_code"`
}

// SchedulerConfig holds fetch and transformation cadence settings.
type SchedulerConfig struct {
	Cities               []CityConfig `yaml:"cities"`
	FetchIntervalMinutes int          `yaml:"fetch_interval_minutes"`
	// DailyAt is the HH:MM (UTC) time for the daily summary run.
	// ReportingAt is the HH:MM time for the filtered-view/reporting runs,
	// normally a few minutes after DailyAt so fresh summaries exist.
	DailyAt     string `yaml:"daily_at"`
	ReportingAt string `yaml:"reporting_at"`
}

// PipelineConfig holds lookback windows for the non-checkpointed stages.
type PipelineConfig struct {
	SummaryLookbackDays   int `yaml:"summary_lookback_days"`
	AnalyticsLookbackDays int `yaml:"analytics_lookback_days"`
	ReportingLookbackDays int `yaml:"reporting_lookback_days"`
}

// Config holds the complete application configuration
type Config struct {
	Environment string          `yaml:"environment"`
	APIPort     int             `yaml:"api_port"`
	Database    DatabaseConfig  `yaml:"database"`
	Logging     LoggingConfig   `yaml:"logging"`
	Source      SourceConfig    `yaml:"source"`
	Scheduler   SchedulerConfig `yaml:"scheduler"`
	Pipeline    PipelineConfig  `yaml:"pipeline"`
}

// Load loads configuration from the specified YAML file. The APP_ENV
// environment variable (dev, uat, prod) overrides the environment field and
// picks per-environment defaults for the sqlite path, API port and log file
// when those are not set explicitly.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if env := os.Getenv("APP_ENV"); env != "" {
		config.Environment = env
	}
	if config.Environment == "" {
		config.Environment = "dev"
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// environmentDefaults mirrors the dev/uat/prod profiles: separate database
// files, ports and log files so environments never share state.
var environmentDefaults = map[string]struct {
	sqlitePath string
	apiPort    int
	logFile    string
}{
	"dev":  {"weather_data_dev.db", 8001, "pipeline_dev.log"},
	"uat":  {"weather_data_uat.db", 8002, "pipeline_uat.log"},
	"prod": {"weather_data.db", 8000, "pipeline.log"},
}

func (c *Config) applyDefaults() {
	defaults, ok := environmentDefaults[c.Environment]
	if !ok {
		defaults = environmentDefaults["dev"]
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.SQLite.Path == "" {
		c.Database.SQLite.Path = defaults.sqlitePath
	}
	if c.APIPort == 0 {
		c.APIPort = defaults.apiPort
	}
	if c.Logging.LogFile == "" {
		c.Logging.LogFile = defaults.logFile
	}
	if c.Logging.LogLevel == "" {
		c.Logging.LogLevel = "info"
	}
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = os.Getenv("OPENWEATHER_BASE_URL")
	}
	if c.Source.APIKey == "" {
		c.Source.APIKey = os.Getenv("OPENWEATHER_API_KEY")
	}
	if c.Source.TimeoutSeconds == 0 {
		c.Source.TimeoutSeconds = 10
	}
	if c.Scheduler.FetchIntervalMinutes == 0 {
		c.Scheduler.FetchIntervalMinutes = 20
	}
	if c.Scheduler.DailyAt == "" {
		c.Scheduler.DailyAt = "02:00"
	}
	if c.Scheduler.ReportingAt == "" {
		c.Scheduler.ReportingAt = "02:10"
	}
	if c.Pipeline.SummaryLookbackDays == 0 {
		c.Pipeline.SummaryLookbackDays = 7
	}
	if c.Pipeline.AnalyticsLookbackDays == 0 {
		c.Pipeline.AnalyticsLookbackDays = 30
	}
	if c.Pipeline.ReportingLookbackDays == 0 {
		c.Pipeline.ReportingLookbackDays = 30
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Environment {
	case "dev", "uat", "prod":
	default:
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	switch c.Database.Driver {
	case "mysql":
		if c.Database.MySQL.Host == "" {
			return fmt.Errorf("mysql host is required")
		}
		if c.Database.MySQL.User == "" {
			return fmt.Errorf("mysql user is required")
		}
		if c.Database.MySQL.DBName == "" {
			return fmt.Errorf("mysql database name is required")
		}
	case "postgres":
		if c.Database.PostgreSQL.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Database.PostgreSQL.User == "" {
			return fmt.Errorf("postgres user is required")
		}
		if c.Database.PostgreSQL.DBName == "" {
			return fmt.Errorf("postgres database name is required")
		}
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	return nil
}

// GetDSN returns the database connection string based on the configured driver
func (c *Config) GetDSN() string {
	switch c.Database.Driver {
	case "mysql":
		mysql := c.Database.MySQL
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
			mysql.User, mysql.Password, mysql.Host, mysql.Port, mysql.DBName,
			mysql.Charset, mysql.ParseTime, mysql.Loc)
		return dsn
	case "postgres":
		pg := c.Database.PostgreSQL
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, pg.SSLMode, pg.TimeZone)
		return dsn
	case "sqlite":
		return c.Database.SQLite.Path
	default:
		return ""
	}
}
