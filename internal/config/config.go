package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongoDB  = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	MongoDB   MongoDBConfig   `mapstructure:"mongodb"`
	Tx        TxConfig        `mapstructure:"tx"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	Reporting ReportingConfig `mapstructure:"reporting"`
	PriceFeed PriceFeedConfig `mapstructure:"pricefeed"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port               string   `mapstructure:"port"`
	CORSAllowedOrigins []string `mapstructure:"corsAllowedOrigins"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Debug  bool   `mapstructure:"debug"`
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

// TxConfig bounds every unit of work.
type TxConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"maxRetries"`
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string `mapstructure:"credentialsPath"`
	SpreadsheetID   string `mapstructure:"spreadsheetID"`
}

// Enabled reports whether the occupancy export can run.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule      string `mapstructure:"cronSchedule"`
	PriceSyncSchedule string `mapstructure:"priceSyncSchedule"`
	Timezone          string `mapstructure:"timezone"`
}

// PriceFeedConfig points at the external market price feed.
type PriceFeedConfig struct {
	BaseURL string `mapstructure:"baseURL"`
	Token   string `mapstructure:"token"`
	Region  string `mapstructure:"region"`
}

// Enabled reports whether prices should be pulled from the feed.
func (c PriceFeedConfig) Enabled() bool {
	return c.BaseURL != ""
}

// LogConfig selects the minimum log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

var envBindings = map[string]string{
	"server.port":                 "APP_PORT",
	"server.corsAllowedOrigins":   "CORS_ALLOWED_ORIGINS",
	"store.driver":                "STORE_DRIVER",
	"store.dsn":                   "DATABASE_DSN",
	"store.debug":                 "DB_DEBUG",
	"mongodb.uri":                 "MONGODB_URI",
	"mongodb.dbName":              "MONGODB_DB_NAME",
	"tx.timeout":                  "TX_TIMEOUT",
	"tx.maxRetries":               "TX_MAX_RETRIES",
	"sheets.credentialsPath":      "GOOGLE_SHEETS_CREDENTIALS_PATH",
	"sheets.spreadsheetID":        "GOOGLE_SHEET_DATABASE_ID",
	"reporting.cronSchedule":      "REPORT_CRON_SCHEDULE",
	"reporting.priceSyncSchedule": "PRICE_SYNC_CRON_SCHEDULE",
	"reporting.timezone":          "TIMEZONE",
	"pricefeed.baseURL":           "PRICE_FEED_URL",
	"pricefeed.token":             "PRICE_FEED_TOKEN",
	"pricefeed.region":            "PRICE_FEED_REGION",
	"log.level":                   "LOG_LEVEL",
}

// Load reads environment variables (optionally from the provided file), an
// optional config.yaml, and materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.corsAllowedOrigins", []string{"*"})
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", "file:kandang.db?_busy_timeout=5000")
	v.SetDefault("mongodb.dbName", "kandang")
	v.SetDefault("tx.timeout", "5s")
	v.SetDefault("tx.maxRetries", 3)
	v.SetDefault("reporting.cronSchedule", "0 20 * * *")
	v.SetDefault("reporting.priceSyncSchedule", "0 6 * * *")
	v.SetDefault("reporting.timezone", "Africa/Conakry")
	v.SetDefault("log.level", "info")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed decoding configuration: %w", err)
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Store.DSN == "" {
			return errors.New("DATABASE_DSN must be provided")
		}
	case DriverMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.Store.Driver)
	}

	if c.Tx.Timeout <= 0 {
		return errors.New("TX_TIMEOUT must be positive")
	}
	if c.Tx.MaxRetries < 0 {
		return errors.New("TX_MAX_RETRIES must not be negative")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if c.Reporting.PriceSyncSchedule == "" {
		return errors.New("PRICE_SYNC_CRON_SCHEDULE must be provided")
	}
	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is invalid: %w", c.Reporting.Timezone, err)
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	return nil
}
