package config

import (
	"strings"
	"testing"
)

// minimalValidConfig returns a minimal valid Config for testing.
func minimalValidConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	if err := minimalValidConfig().Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_MissingCredentialsIsNotAnError(t *testing.T) {
	t.Parallel()

	// Enabled providers without credentials must pass validation; they
	// are reported unavailable at runtime instead.
	cfg := minimalValidConfig()
	cfg.Providers.Duffel.Enabled = true
	cfg.Providers.Amadeus.Enabled = true

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "must be one of") {
		t.Errorf("Validate() error = %v, want oneof failure", err)
	}
}

func TestValidate_BadDuration(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Cache.TTL = "five minutes"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "valid duration") {
		t.Errorf("Validate() error = %v, want duration failure", err)
	}
}

func TestValidate_SqliteRequiresPath(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Store.Backend = "sqlite"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "requires path") {
		t.Errorf("Validate() error = %v, want sqlite path failure", err)
	}

	cfg.Store.Path = "/var/lib/tripforge/tripforge.db"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with path unexpected error: %v", err)
	}
}

func TestValidate_RedisRequiresAddr(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Cache.Backend = "redis"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "redis.addr") {
		t.Errorf("Validate() error = %v, want redis addr failure", err)
	}

	cfg.Cache.Redis.Addr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with addr unexpected error: %v", err)
	}
}

func TestValidate_AuditBackends(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Audit.Backend = "file"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "requires dir") {
		t.Errorf("Validate() error = %v, want file dir failure", err)
	}
	cfg.Audit.Dir = "/var/log/tripforge"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with dir unexpected error: %v", err)
	}

	cfg = minimalValidConfig()
	cfg.Audit.Backend = "sqlite"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "store.backend") {
		t.Errorf("Validate() error = %v, want sqlite store coupling failure", err)
	}
	cfg.Store.Backend = "sqlite"
	cfg.Store.Path = "/var/lib/tripforge/tripforge.db"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with sqlite store unexpected error: %v", err)
	}
}
