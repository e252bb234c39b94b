package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Cache backend types
const (
	CacheTypeSQLite = "sqlite"
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
	CacheTypeNone   = "none"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Cache         CacheConfig
	OpenFoodFacts OpenFoodFactsConfig
	UPCDatabase   UPCDatabaseConfig
	HTTP          HTTPConfig
	RateLimit     RateLimitConfig
	Metrics       MetricsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	TrustedProxies []string `mapstructure:"trusted_proxies"` // IPs or CIDRs allowed to set X-Forwarded-For
}

// CacheConfig holds product cache configuration
type CacheConfig struct {
	Type      string `mapstructure:"type"` // "sqlite", "memory", "redis" or "none"
	Path      string `mapstructure:"path"` // SQLite database file
	RedisURL  string `mapstructure:"redis_url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Enabled reports whether a cache backend is configured
func (c CacheConfig) Enabled() bool {
	return c.Type != CacheTypeNone
}

// OpenFoodFactsConfig holds Open Food Facts API configuration
type OpenFoodFactsConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// Enabled reports whether the provider has everything it needs
func (c OpenFoodFactsConfig) Enabled() bool {
	return strings.TrimSpace(c.BaseURL) != ""
}

// UPCDatabaseConfig holds UPC Database API configuration
type UPCDatabaseConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// Enabled reports whether the provider has everything it needs
func (c UPCDatabaseConfig) Enabled() bool {
	return strings.TrimSpace(c.BaseURL) != "" && strings.TrimSpace(c.APIKey) != ""
}

// HTTPConfig holds outbound HTTP client settings shared by providers
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP     int `mapstructure:"per_ip"`    // requests per minute per client, 0 disables
	Providers int `mapstructure:"providers"` // requests per hour per provider, 0 disables
}

// MetricsConfig holds StatsD metrics configuration
type MetricsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Address string   `mapstructure:"address"`
	Prefix  string   `mapstructure:"prefix"`
	Tags    []string `mapstructure:"tags"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/barcodelens/")

	// BARCODELENS_UPCDATABASE_API_KEY -> upcdatabase.api_key
	v.SetEnvPrefix("BARCODELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads variables from ./.env if present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return gotenv.Load(".env")
}

// setDefaults sets default configuration values.
// Every key gets a default so that environment overrides are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:8123"})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("cache.type", CacheTypeSQLite)
	v.SetDefault("cache.path", "barcodes.db")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", "barcode:")

	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org/api/v0/product/")

	// UPC Database needs an API key; without one the provider stays disabled
	v.SetDefault("upcdatabase.base_url", "https://api.upcdatabase.org/product/")
	v.SetDefault("upcdatabase.api_key", "")

	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.user_agent", "BarcodeLens/1.0")

	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.providers", 100)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", "127.0.0.1:8125")
	v.SetDefault("metrics.prefix", "barcodelens")
	v.SetDefault("metrics.tags", []string{})
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Cache.Type {
	case CacheTypeSQLite:
		if strings.TrimSpace(config.Cache.Path) == "" {
			return fmt.Errorf("cache path is required when cache type is 'sqlite'")
		}
	case CacheTypeRedis:
		if strings.TrimSpace(config.Cache.RedisURL) == "" {
			return fmt.Errorf("Redis URL is required when cache type is 'redis'")
		}
		// Clear deletes everything matching "<prefix>*"
		if strings.TrimSpace(config.Cache.KeyPrefix) == "" {
			return fmt.Errorf("cache key prefix is required when cache type is 'redis'")
		}
		if strings.ContainsAny(config.Cache.KeyPrefix, `*?[]\`) {
			return fmt.Errorf("cache key prefix must not contain glob characters, got: %q", config.Cache.KeyPrefix)
		}
	case CacheTypeMemory, CacheTypeNone:
	default:
		return fmt.Errorf("cache type must be 'sqlite', 'memory', 'redis' or 'none', got: %s", config.Cache.Type)
	}

	for _, proxy := range config.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("trusted proxy must be an IP or CIDR, got: %s", proxy)
			}
		}
	}

	if config.HTTP.Timeout < 0 {
		return fmt.Errorf("http timeout must not be negative, got: %s", config.HTTP.Timeout)
	}

	if config.RateLimit.PerIP < 0 || config.RateLimit.Providers < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	if config.Metrics.Enabled && strings.TrimSpace(config.Metrics.Address) == "" {
		return fmt.Errorf("metrics address is required when metrics are enabled")
	}

	return nil
}
