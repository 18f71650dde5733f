// Package config provides the configuration schema for Tripforge.
//
// Configuration is file-based (tripforge.yaml) with environment variable
// overrides. Provider credentials are deliberately optional: a provider
// with missing credentials is registered as unavailable and skipped at
// runtime, never a startup error, so a deployment with a single supplier
// works out of the box.
package config

import "github.com/spf13/viper"

// Config is the top-level configuration for Tripforge.
type Config struct {
	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty. DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Providers configures the flight suppliers.
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`

	// Fallback configures the search fallback path.
	Fallback FallbackConfig `yaml:"fallback" mapstructure:"fallback"`

	// Cache configures the search result cache.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Store configures policy, directory, and spend persistence.
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// Audit configures the usage audit trail.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// PolicySeedFile is an optional YAML file of policies, exceptions,
	// and role assignments loaded at startup.
	PolicySeedFile string `yaml:"policy_seed_file" mapstructure:"policy_seed_file"`

	// Metrics enables the Prometheus registry.
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`

	// Tracing enables span export to stderr as JSON lines.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`

	// DevMode enables development features (verbose logging, etc).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ProvidersConfig configures the flight suppliers. Order of preference is
// fixed: Duffel is primary when available, Amadeus second.
type ProvidersConfig struct {
	Duffel  DuffelConfig  `yaml:"duffel" mapstructure:"duffel"`
	Amadeus AmadeusConfig `yaml:"amadeus" mapstructure:"amadeus"`

	// Timeout bounds a single upstream call (e.g. "30s").
	// Defaults to "30s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`
}

// DuffelConfig configures the Duffel adapter.
type DuffelConfig struct {
	// Enabled controls whether the adapter is registered at all.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Token is the API access token. An enabled provider without a token
	// is reported unavailable, not a startup error.
	Token string `yaml:"token" mapstructure:"token"`

	// BaseURL overrides the API endpoint, for tests and sandboxes.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
}

// AmadeusConfig configures the Amadeus adapter.
type AmadeusConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// ClientID and ClientSecret are the OAuth2 client credentials. Both
	// must be present for the provider to be available.
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`

	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// QuoteTTL is how long held offer quotes stay bookable client-side
	// (e.g. "20m"). Defaults to "20m".
	QuoteTTL string `yaml:"quote_ttl" mapstructure:"quote_ttl" validate:"omitempty,duration"`
}

// FallbackConfig configures the search fallback path.
type FallbackConfig struct {
	// Enabled controls whether a failed primary search is retried
	// against the next available provider. Defaults to true.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// CacheConfig configures the search result cache.
type CacheConfig struct {
	// Backend selects the cache implementation.
	// Valid values: "memory" or "redis". Defaults to "memory".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory redis"`

	// TTL is how long search results stay fresh (e.g. "5m").
	// Defaults to "5m".
	TTL string `yaml:"ttl" mapstructure:"ttl" validate:"omitempty,duration"`

	// Size is the entry limit for the memory backend. Defaults to 512.
	Size int `yaml:"size" mapstructure:"size" validate:"omitempty,min=1"`

	// Redis configures the redis backend; ignored for memory.
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	// Addr is the host:port of the redis server.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`

	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db" validate:"min=0"`
}

// StoreConfig configures policy, directory, and spend persistence.
type StoreConfig struct {
	// Backend selects the store implementation.
	// Valid values: "memory" or "sqlite". Defaults to "memory".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory sqlite"`

	// Path is the sqlite database file. Required for the sqlite backend.
	Path string `yaml:"path" mapstructure:"path"`
}

// AuditConfig configures the usage audit trail.
type AuditConfig struct {
	// Backend selects where audit records are written.
	// Valid values: "memory", "file", or "sqlite". Defaults to "memory".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory file sqlite"`

	// Dir is the directory for the file backend's daily log files.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// RetentionDays is the number of days to keep audit files.
	// Defaults to 30.
	RetentionDays int `yaml:"retention_days" mapstructure:"retention_days" validate:"omitempty,min=1"`

	// MaxFileSizeMB is the maximum size per audit file in megabytes
	// before rotation. Defaults to 100.
	MaxFileSizeMB int `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb" validate:"omitempty,min=1"`

	// CacheSize is the number of recent records kept in memory for
	// queries. Defaults to 1000.
	CacheSize int `yaml:"cache_size" mapstructure:"cache_size" validate:"omitempty,min=1"`

	// ChannelSize is the buffer size for the audit channel.
	// Defaults to 1000.
	ChannelSize int `yaml:"channel_size" mapstructure:"channel_size" validate:"omitempty,min=1"`

	// BatchSize is the number of records batched before a write.
	// Defaults to 100.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" validate:"omitempty,min=1"`

	// FlushInterval is how often partial batches are written (e.g. "1s").
	// Defaults to "1s".
	FlushInterval string `yaml:"flush_interval" mapstructure:"flush_interval" validate:"omitempty,duration"`

	// SendTimeout is how long Record blocks when the channel is full
	// before dropping (e.g. "100ms"). "0" drops immediately.
	// Defaults to "100ms".
	SendTimeout string `yaml:"send_timeout" mapstructure:"send_timeout" validate:"omitempty"`
}

// DuffelAvailable reports whether the Duffel provider can be used.
func (c *Config) DuffelAvailable() bool {
	return c.Providers.Duffel.Enabled && c.Providers.Duffel.Token != ""
}

// AmadeusAvailable reports whether the Amadeus provider can be used.
func (c *Config) AmadeusAvailable() bool {
	a := c.Providers.Amadeus
	return a.Enabled && a.ClientID != "" && a.ClientSecret != ""
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Providers.Timeout == "" {
		c.Providers.Timeout = "30s"
	}
	if c.Providers.Amadeus.QuoteTTL == "" {
		c.Providers.Amadeus.QuoteTTL = "20m"
	}

	// Fallback is on by default. viper.IsSet distinguishes "not set"
	// (zero value) from "explicitly false".
	if !viper.IsSet("fallback.enabled") {
		c.Fallback.Enabled = true
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "5m"
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 512
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}

	if c.Audit.Backend == "" {
		c.Audit.Backend = "memory"
	}
	if c.Audit.RetentionDays == 0 {
		c.Audit.RetentionDays = 30
	}
	if c.Audit.MaxFileSizeMB == 0 {
		c.Audit.MaxFileSizeMB = 100
	}
	if c.Audit.CacheSize == 0 {
		c.Audit.CacheSize = 1000
	}
	if c.Audit.ChannelSize == 0 {
		c.Audit.ChannelSize = 1000
	}
	if c.Audit.BatchSize == 0 {
		c.Audit.BatchSize = 100
	}
	if c.Audit.FlushInterval == "" {
		c.Audit.FlushInterval = "1s"
	}
	if c.Audit.SendTimeout == "" {
		c.Audit.SendTimeout = "100ms"
	}

	if c.DevMode {
		c.LogLevel = "debug"
	}
}
