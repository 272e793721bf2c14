package config

import (
	"context"
	"encoding/json"
	"net"
	"net/url"
	"time"

	"github.com/lendflow/lendflow/pkg/config/definition"
)

// Config represents the complete configuration for the lendflow server.
type Config struct {
	Server     ServerConfig     `koanf:"server"     validate:"required"`
	Database   DatabaseConfig   `koanf:"database"   validate:"required"`
	Redis      RedisConfig      `koanf:"redis"`
	Auth       AuthConfig       `koanf:"auth"`
	Storage    StorageConfig    `koanf:"storage"`
	Billing    BillingConfig    `koanf:"billing"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	Runtime    RuntimeConfig    `koanf:"runtime"    validate:"required"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host        string        `koanf:"host"         validate:"required"        env:"SERVER_HOST"`
	Port        int           `koanf:"port"         validate:"min=1,max=65535" env:"SERVER_PORT"`
	BasePath    string        `koanf:"base_path"    validate:"required"        env:"SERVER_BASE_PATH"`
	CORSEnabled bool          `koanf:"cors_enabled"                            env:"SERVER_CORS_ENABLED"`
	CORS        CORSConfig    `koanf:"cors"`
	Timeout     time.Duration `koanf:"timeout"                                 env:"SERVER_TIMEOUT"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"   env:"SERVER_CORS_ALLOWED_ORIGINS"`
	AllowCredentials bool     `koanf:"allow_credentials" env:"SERVER_CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `koanf:"max_age"           env:"SERVER_CORS_MAX_AGE"`
}

// DatabaseConfig contains database connection configuration.
type DatabaseConfig struct {
	ConnString      string          `koanf:"conn_string"       env:"DB_CONN_STRING"`
	Host            string          `koanf:"host"              env:"DB_HOST"`
	Port            string          `koanf:"port"              env:"DB_PORT"`
	User            string          `koanf:"user"              env:"DB_USER"`
	Password        SensitiveString `koanf:"password"          env:"DB_PASSWORD"          sensitive:"true"`
	DBName          string          `koanf:"name"              env:"DB_NAME"`
	SSLMode         string          `koanf:"ssl_mode"          env:"DB_SSL_MODE"`
	MaxOpenConns    int             `koanf:"max_open_conns"    env:"DB_MAX_OPEN_CONNS"    validate:"min=1"`
	MinIdleConns    int             `koanf:"min_idle_conns"    env:"DB_MIN_IDLE_CONNS"    validate:"min=0"`
	ConnMaxLifetime time.Duration   `koanf:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	AutoMigrate     bool            `koanf:"auto_migrate"      env:"DB_AUTO_MIGRATE"`
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	URL      string          `koanf:"url"      env:"REDIS_URL"`
	Addr     string          `koanf:"addr"     env:"REDIS_ADDR"`
	Password SensitiveString `koanf:"password" env:"REDIS_PASSWORD" sensitive:"true"`
	DB       int             `koanf:"db"       env:"REDIS_DB"       validate:"min=0"`
	Prefix   string          `koanf:"prefix"   env:"REDIS_PREFIX"`
}

// AuthConfig contains identity provider and API key settings.
type AuthConfig struct {
	Enabled      bool            `koanf:"enabled"        env:"AUTH_ENABLED"`
	JWTSecret    SensitiveString `koanf:"jwt_secret"     env:"AUTH_JWT_SECRET"     sensitive:"true"`
	JWTIssuer    string          `koanf:"jwt_issuer"     env:"AUTH_JWT_ISSUER"`
	JWTAudience  string          `koanf:"jwt_audience"   env:"AUTH_JWT_AUDIENCE"`
	APIKeyPrefix string          `koanf:"api_key_prefix" env:"AUTH_API_KEY_PREFIX" validate:"required"`
	CacheTTL     time.Duration   `koanf:"cache_ttl"      env:"AUTH_CACHE_TTL"`
}

// StorageConfig contains the S3 compatible object store settings.
type StorageConfig struct {
	Endpoint         string          `koanf:"endpoint"           env:"STORAGE_ENDPOINT"`
	Region           string          `koanf:"region"             env:"STORAGE_REGION"`
	Bucket           string          `koanf:"bucket"             env:"STORAGE_BUCKET"`
	KeyID            string          `koanf:"key_id"             env:"STORAGE_KEY_ID"`
	AppKey           SensitiveString `koanf:"app_key"            env:"STORAGE_APP_KEY"            sensitive:"true"`
	UsePathStyle     bool            `koanf:"use_path_style"     env:"STORAGE_USE_PATH_STYLE"`
	PresignTTL       time.Duration   `koanf:"presign_ttl"        env:"STORAGE_PRESIGN_TTL"`
	MaxUploadBytes   int64           `koanf:"max_upload_bytes"   env:"STORAGE_MAX_UPLOAD_BYTES"   validate:"min=1"`
	AllowedMIMETypes []string        `koanf:"allowed_mime_types" env:"STORAGE_ALLOWED_MIME_TYPES" validate:"dive,mime_type"`
}

// BillingConfig contains payment gateway and subscription settings.
type BillingConfig struct {
	KeyID         string          `koanf:"key_id"         env:"RAZORPAY_KEY_ID"`
	KeySecret     SensitiveString `koanf:"key_secret"     env:"RAZORPAY_KEY_SECRET"     sensitive:"true"`
	WebhookSecret SensitiveString `koanf:"webhook_secret" env:"RAZORPAY_WEBHOOK_SECRET" sensitive:"true"`
	BaseURL       string          `koanf:"base_url"       env:"RAZORPAY_BASE_URL"       validate:"required"`
	TrialDays     int             `koanf:"trial_days"     env:"BILLING_TRIAL_DAYS"      validate:"min=0"`
	GracePeriod   time.Duration   `koanf:"grace_period"   env:"BILLING_GRACE_PERIOD"`
	SweepSchedule string          `koanf:"sweep_schedule" env:"BILLING_SWEEP_SCHEDULE"  validate:"required,cron_spec"`
	MaxRetries    int             `koanf:"max_retries"    env:"BILLING_MAX_RETRIES"     validate:"min=0"`
	Timeout       time.Duration   `koanf:"timeout"        env:"BILLING_TIMEOUT"`
	DedupeTTL     time.Duration   `koanf:"dedupe_ttl"     env:"BILLING_DEDUPE_TTL"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled    bool       `koanf:"enabled"      env:"RATELIMIT_ENABLED"`
	GlobalRate RateConfig `koanf:"global_rate"`
	APIKeyRate RateConfig `koanf:"api_key_rate"`
	Prefix     string     `koanf:"prefix"       env:"RATELIMIT_PREFIX"`
}

// RateConfig represents a single rate limit configuration.
type RateConfig struct {
	Limit  int64         `koanf:"limit"  validate:"min=0"`
	Period time.Duration `koanf:"period"`
}

// MonitoringConfig controls the metrics endpoint.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"MONITORING_PATH"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production" env:"RUNTIME_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error"          env:"RUNTIME_LOG_LEVEL"`
	LogJSON     bool   `koanf:"log_json"                                                    env:"RUNTIME_LOG_JSON"`
}

// SensitiveString keeps secrets out of logs and JSON dumps.
type SensitiveString string

const redacted = "[REDACTED]"

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// Value returns the raw secret.
func (s SensitiveString) Value() string {
	return string(s)
}

func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SensitiveString) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SensitiveString(raw)
	return nil
}

// Service defines the configuration management service interface.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type that provided a configuration key.
	GetSource(key string) SourceType
	// Overrides lists keys not left at their defaults, secrets redacted.
	Overrides() []Override
}

// Source defines the interface for configuration sources.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
	Close() error
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Load loads configuration using the default service.
func Load() (*Config, error) {
	service := NewService()
	return service.Load(context.Background())
}

// Default returns a Config with default values for development.
func Default() *Config {
	registry := definition.CreateRegistry()
	return &Config{
		Server:     buildServerConfig(registry),
		Database:   buildDatabaseConfig(registry),
		Redis:      buildRedisConfig(registry),
		Auth:       buildAuthConfig(registry),
		Storage:    buildStorageConfig(registry),
		Billing:    buildBillingConfig(registry),
		RateLimit:  buildRateLimitConfig(registry),
		Monitoring: buildMonitoringConfig(registry),
		Runtime:    buildRuntimeConfig(registry),
	}
}

// DSN returns the connection string, assembling it from parts when unset.
func (c *DatabaseConfig) DSN() string {
	if c.ConnString != "" {
		return c.ConnString
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password.Value()),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

func getString(registry *definition.Registry, path string) string {
	if val := registry.GetDefault(path); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(registry *definition.Registry, path string) int {
	if val := registry.GetDefault(path); val != nil {
		if i, ok := val.(int); ok {
			return i
		}
	}
	return 0
}

func getInt64(registry *definition.Registry, path string) int64 {
	switch v := registry.GetDefault(path).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func getBool(registry *definition.Registry, path string) bool {
	if val := registry.GetDefault(path); val != nil {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

func getDuration(registry *definition.Registry, path string) time.Duration {
	if val := registry.GetDefault(path); val != nil {
		if d, ok := val.(time.Duration); ok {
			return d
		}
	}
	return 0
}

func getStringSlice(registry *definition.Registry, path string) []string {
	if val := registry.GetDefault(path); val != nil {
		if slice, ok := val.([]string); ok {
			out := make([]string, len(slice))
			copy(out, slice)
			return out
		}
	}
	return []string{}
}

func buildServerConfig(registry *definition.Registry) ServerConfig {
	return ServerConfig{
		Host:        getString(registry, "server.host"),
		Port:        getInt(registry, "server.port"),
		BasePath:    getString(registry, "server.base_path"),
		CORSEnabled: getBool(registry, "server.cors_enabled"),
		CORS: CORSConfig{
			AllowedOrigins:   getStringSlice(registry, "server.cors.allowed_origins"),
			AllowCredentials: getBool(registry, "server.cors.allow_credentials"),
			MaxAge:           getInt(registry, "server.cors.max_age"),
		},
		Timeout: getDuration(registry, "server.timeout"),
	}
}

func buildDatabaseConfig(registry *definition.Registry) DatabaseConfig {
	return DatabaseConfig{
		Host:            getString(registry, "database.host"),
		Port:            getString(registry, "database.port"),
		User:            getString(registry, "database.user"),
		Password:        SensitiveString(getString(registry, "database.password")),
		DBName:          getString(registry, "database.name"),
		SSLMode:         getString(registry, "database.ssl_mode"),
		MaxOpenConns:    getInt(registry, "database.max_open_conns"),
		MinIdleConns:    getInt(registry, "database.min_idle_conns"),
		ConnMaxLifetime: getDuration(registry, "database.conn_max_lifetime"),
		AutoMigrate:     getBool(registry, "database.auto_migrate"),
	}
}

func buildRedisConfig(registry *definition.Registry) RedisConfig {
	return RedisConfig{
		URL:    getString(registry, "redis.url"),
		Addr:   getString(registry, "redis.addr"),
		DB:     getInt(registry, "redis.db"),
		Prefix: getString(registry, "redis.prefix"),
	}
}

func buildAuthConfig(registry *definition.Registry) AuthConfig {
	return AuthConfig{
		Enabled:      getBool(registry, "auth.enabled"),
		JWTIssuer:    getString(registry, "auth.jwt_issuer"),
		JWTAudience:  getString(registry, "auth.jwt_audience"),
		APIKeyPrefix: getString(registry, "auth.api_key_prefix"),
		CacheTTL:     getDuration(registry, "auth.cache_ttl"),
	}
}

func buildStorageConfig(registry *definition.Registry) StorageConfig {
	return StorageConfig{
		Endpoint:         getString(registry, "storage.endpoint"),
		Region:           getString(registry, "storage.region"),
		Bucket:           getString(registry, "storage.bucket"),
		UsePathStyle:     getBool(registry, "storage.use_path_style"),
		PresignTTL:       getDuration(registry, "storage.presign_ttl"),
		MaxUploadBytes:   getInt64(registry, "storage.max_upload_bytes"),
		AllowedMIMETypes: getStringSlice(registry, "storage.allowed_mime_types"),
	}
}

func buildBillingConfig(registry *definition.Registry) BillingConfig {
	return BillingConfig{
		BaseURL:       getString(registry, "billing.base_url"),
		TrialDays:     getInt(registry, "billing.trial_days"),
		GracePeriod:   getDuration(registry, "billing.grace_period"),
		SweepSchedule: getString(registry, "billing.sweep_schedule"),
		MaxRetries:    getInt(registry, "billing.max_retries"),
		Timeout:       getDuration(registry, "billing.timeout"),
		DedupeTTL:     getDuration(registry, "billing.dedupe_ttl"),
	}
}

func buildRateLimitConfig(registry *definition.Registry) RateLimitConfig {
	return RateLimitConfig{
		Enabled: getBool(registry, "ratelimit.enabled"),
		GlobalRate: RateConfig{
			Limit:  getInt64(registry, "ratelimit.global_rate.limit"),
			Period: getDuration(registry, "ratelimit.global_rate.period"),
		},
		APIKeyRate: RateConfig{
			Limit:  getInt64(registry, "ratelimit.api_key_rate.limit"),
			Period: getDuration(registry, "ratelimit.api_key_rate.period"),
		},
		Prefix: getString(registry, "ratelimit.prefix"),
	}
}

func buildMonitoringConfig(registry *definition.Registry) MonitoringConfig {
	return MonitoringConfig{
		Enabled: getBool(registry, "monitoring.enabled"),
		Path:    getString(registry, "monitoring.path"),
	}
}

func buildRuntimeConfig(registry *definition.Registry) RuntimeConfig {
	return RuntimeConfig{
		Environment: getString(registry, "runtime.environment"),
		LogLevel:    getString(registry, "runtime.log_level"),
		LogJSON:     getBool(registry, "runtime.log_json"),
	}
}
