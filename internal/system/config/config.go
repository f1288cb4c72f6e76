package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabasesConfig `mapstructure:"database"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Security SecurityConfig  `mapstructure:"security"`
	Profile  ProfileConfig   `mapstructure:"profile"`
	CORS     CORSConfig      `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Consent DatabaseConfig `mapstructure:"consent"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	// IDEncryptionKey is the hex-encoded AES key used for external id
	// encryption. 32 bytes (64 hex chars) selects AES-256.
	IDEncryptionKey string `mapstructure:"id_encryption_key"`
}

// ProfileConfig holds ASPSP profile settings: a default bank profile and
// optional per-instance overrides keyed by instance id.
type ProfileConfig struct {
	Default   ProfileSettings            `mapstructure:"default"`
	Instances map[string]ProfileSettings `mapstructure:"instances"`
}

// ProfileSettings is the per-bank-instance policy consumed by the
// lifecycle engine.
type ProfileSettings struct {
	MaxConsentValidityDays              int      `mapstructure:"max_consent_validity_days"`
	NotConfirmedConsentExpirationTimeMs int64    `mapstructure:"not_confirmed_consent_expiration_time_ms"`
	NotConfirmedPaymentExpirationTimeMs int64    `mapstructure:"not_confirmed_payment_expiration_time_ms"`
	RedirectURLExpirationTimeMs         int64    `mapstructure:"redirect_url_expiration_time_ms"`
	AvailableBookingStatuses            []string `mapstructure:"available_booking_statuses"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

var globalConfig *Config

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default lookup order:
		// 1. ./repository/conf/deployment.yaml (production - relative to binary)
		// 2. ./cmd/server/repository/conf/deployment.yaml (development)
		v.SetConfigName("deployment")
		v.SetConfigType("yaml")
		v.AddConfigPath("./repository/conf")
		v.AddConfigPath("./cmd/server/repository/conf")
		v.AddConfigPath("../repository/conf")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("CONSENT_CMS")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Consent.Hostname == "" {
		return fmt.Errorf("database hostname is required")
	}

	if config.Database.Consent.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if config.Security.IDEncryptionKey == "" {
		return fmt.Errorf("id encryption key is required")
	}

	if config.Profile.Default.NotConfirmedConsentExpirationTimeMs <= 0 {
		return fmt.Errorf("not confirmed consent expiration time is required")
	}
	if config.Profile.Default.NotConfirmedPaymentExpirationTimeMs <= 0 {
		return fmt.Errorf("not confirmed payment expiration time is required")
	}
	if config.Profile.Default.RedirectURLExpirationTimeMs <= 0 {
		return fmt.Errorf("redirect url expiration time is required")
	}

	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// SetGlobal sets the global configuration (for testing purposes)
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

// GetDSN returns the database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}
