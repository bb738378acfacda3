package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kids    KidsConfig    `mapstructure:"kids"`
	Search  SearchConfig  `mapstructure:"search"`
	Payment PaymentConfig `mapstructure:"payment"`
	Log     LogConfig     `mapstructure:"log"`
	OTel    OTelConfig    `mapstructure:"otel"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
}

// APIConfig holds settings for the remote REST backend
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects where the client keeps durable local state
type StorageConfig struct {
	Driver    string `mapstructure:"driver"` // file, redis
	Path      string `mapstructure:"path"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KidsConfig holds kids check-in settings
type KidsConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// SearchConfig holds list and search-as-you-type settings
type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	PageSize int           `mapstructure:"page_size"`
}

// PaymentConfig selects the online payment provider
type PaymentConfig struct {
	Provider     string `mapstructure:"provider"` // backend, stripe
	Currency     string `mapstructure:"currency"`
	StripeSecret string `mapstructure:"stripe_secret"`
	SuccessURL   string `mapstructure:"success_url"`
	CancelURL    string `mapstructure:"cancel_url"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServiceName   string `mapstructure:"service_name"`
	CollectorAddr string `mapstructure:"collector_addr"`
	// SampleRatio is the share of commands traced, 1 for all
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// A missing .env is fine, env vars might be set
	_ = v.ReadInConfig()

	return load(v)
}

// LoadWithPath loads configuration from a specific path
func LoadWithPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	if err := bindConfig(v, cfg); err != nil {
		return nil, fmt.Errorf("failed to bind config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "ecclesia")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", false)
	v.SetDefault("APP_VERSION", "1.0.0")

	// API defaults
	v.SetDefault("API_BASE_URL", "http://localhost:8080/api")
	v.SetDefault("API_TIMEOUT", "30s")

	// Storage defaults
	v.SetDefault("STORAGE_DRIVER", "file")
	v.SetDefault("STORAGE_PATH", ".ecclesia/state.json")
	v.SetDefault("STORAGE_KEY_PREFIX", "ecclesia:")

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// Kids defaults
	v.SetDefault("KIDS_POLL_INTERVAL", "30s")

	// Search defaults
	v.SetDefault("SEARCH_DEBOUNCE", "500ms")
	v.SetDefault("SEARCH_PAGE_SIZE", 10)

	// Payment defaults
	v.SetDefault("PAYMENT_PROVIDER", "backend")
	v.SetDefault("PAYMENT_CURRENCY", "brl")
	v.SetDefault("PAYMENT_STRIPE_SECRET", "")
	v.SetDefault("PAYMENT_SUCCESS_URL", "")
	v.SetDefault("PAYMENT_CANCEL_URL", "")

	// Log defaults
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LOG_OUTPUT", "stderr")

	// OTel defaults
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "ecclesia")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
}

func bindConfig(v *viper.Viper, cfg *Config) error {
	// App
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.Debug = v.GetBool("APP_DEBUG")
	cfg.App.Version = v.GetString("APP_VERSION")

	// API
	cfg.API.BaseURL = strings.TrimRight(v.GetString("API_BASE_URL"), "/")
	cfg.API.Timeout = v.GetDuration("API_TIMEOUT")

	// Storage
	cfg.Storage.Driver = strings.ToLower(v.GetString("STORAGE_DRIVER"))
	cfg.Storage.Path = v.GetString("STORAGE_PATH")
	cfg.Storage.KeyPrefix = v.GetString("STORAGE_KEY_PREFIX")

	// Redis
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.DialTimeout = v.GetDuration("REDIS_DIAL_TIMEOUT")
	cfg.Redis.ReadTimeout = v.GetDuration("REDIS_READ_TIMEOUT")
	cfg.Redis.WriteTimeout = v.GetDuration("REDIS_WRITE_TIMEOUT")

	// Kids
	cfg.Kids.PollInterval = v.GetDuration("KIDS_POLL_INTERVAL")

	// Search
	cfg.Search.Debounce = v.GetDuration("SEARCH_DEBOUNCE")
	cfg.Search.PageSize = v.GetInt("SEARCH_PAGE_SIZE")

	// Payment
	cfg.Payment.Provider = strings.ToLower(v.GetString("PAYMENT_PROVIDER"))
	cfg.Payment.Currency = strings.ToLower(v.GetString("PAYMENT_CURRENCY"))
	cfg.Payment.StripeSecret = v.GetString("PAYMENT_STRIPE_SECRET")
	cfg.Payment.SuccessURL = v.GetString("PAYMENT_SUCCESS_URL")
	cfg.Payment.CancelURL = v.GetString("PAYMENT_CANCEL_URL")

	// Log
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Output = v.GetString("LOG_OUTPUT")

	// OTel
	cfg.OTel.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.OTel.ServiceName = v.GetString("OTEL_SERVICE_NAME")
	cfg.OTel.CollectorAddr = v.GetString("OTEL_COLLECTOR_ADDR")
	cfg.OTel.SampleRatio = v.GetFloat64("OTEL_SAMPLE_RATIO")

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}

	switch c.Storage.Driver {
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the file driver")
		}
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("redis host is required for the redis driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %q", c.Storage.Driver)
	}

	if c.Kids.PollInterval <= 0 {
		return fmt.Errorf("invalid kids poll interval: %s", c.Kids.PollInterval)
	}

	if c.Search.Debounce < 0 {
		return fmt.Errorf("invalid search debounce: %s", c.Search.Debounce)
	}

	if c.Search.PageSize <= 0 {
		return fmt.Errorf("invalid page size: %d", c.Search.PageSize)
	}

	if c.OTel.SampleRatio > 1 {
		return fmt.Errorf("invalid trace sample ratio: %v", c.OTel.SampleRatio)
	}

	switch c.Payment.Provider {
	case "backend":
	case "stripe":
		if c.Payment.StripeSecret == "" {
			return fmt.Errorf("stripe secret is required for the stripe provider")
		}
		if c.Payment.SuccessURL == "" || c.Payment.CancelURL == "" {
			return fmt.Errorf("stripe success and cancel URLs are required")
		}
	default:
		return fmt.Errorf("invalid payment provider: %q", c.Payment.Provider)
	}

	// Test keys must not reach production
	if c.IsProduction() && strings.HasPrefix(c.Payment.StripeSecret, "sk_test_") {
		return fmt.Errorf("stripe test key must not be used in production")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
