package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment
// variables. If configFile is empty, it searches standard locations for
// tripforge.yaml/.yml. The search requires an explicit YAML extension to
// avoid matching the binary itself, which Viper's built-in SetConfigName
// would match (same base name, no extension).
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file found in any standard location. Set name/type
		// without search paths so ReadInConfig returns
		// ConfigFileNotFoundError (handled gracefully by callers).
		viper.SetConfigName("tripforge")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: TRIPFORGE_PROVIDERS_DUFFEL_TOKEN
	viper.SetEnvPrefix("TRIPFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for a tripforge config file
// with an explicit YAML extension (.yaml or .yml).
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".tripforge"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "tripforge"))
		}
	} else {
		paths = append(paths, "/etc/tripforge")
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths searches the given directories for tripforge.yaml
// or .yml. Returns the full path of the first match, or empty string.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "tripforge"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds nested config keys for environment variable
// support. Example: TRIPFORGE_PROVIDERS_DUFFEL_TOKEN overrides
// providers.duffel.token.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("log_level")

	_ = viper.BindEnv("providers.timeout")
	_ = viper.BindEnv("providers.duffel.enabled")
	_ = viper.BindEnv("providers.duffel.token")
	_ = viper.BindEnv("providers.duffel.base_url")
	_ = viper.BindEnv("providers.amadeus.enabled")
	_ = viper.BindEnv("providers.amadeus.client_id")
	_ = viper.BindEnv("providers.amadeus.client_secret")
	_ = viper.BindEnv("providers.amadeus.base_url")
	_ = viper.BindEnv("providers.amadeus.quote_ttl")

	_ = viper.BindEnv("fallback.enabled")

	_ = viper.BindEnv("cache.backend")
	_ = viper.BindEnv("cache.ttl")
	_ = viper.BindEnv("cache.size")
	_ = viper.BindEnv("cache.redis.addr")
	_ = viper.BindEnv("cache.redis.password")
	_ = viper.BindEnv("cache.redis.db")

	_ = viper.BindEnv("store.backend")
	_ = viper.BindEnv("store.path")

	_ = viper.BindEnv("audit.backend")
	_ = viper.BindEnv("audit.dir")
	_ = viper.BindEnv("audit.retention_days")
	_ = viper.BindEnv("audit.max_file_size_mb")

	_ = viper.BindEnv("policy_seed_file")
	_ = viper.BindEnv("metrics")
	_ = viper.BindEnv("tracing")
	_ = viper.BindEnv("dev_mode")
}

// LoadConfig reads the configuration file, applies environment overrides,
// sets defaults, and validates. A missing config file is not an error:
// the loader falls through to environment variables and defaults.
func LoadConfig() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was
// loaded, or empty string when running from env vars and defaults only.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
