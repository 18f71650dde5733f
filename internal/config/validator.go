package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers Tripforge-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	// duration: validates Go duration strings ("30s", "5m", "100ms").
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

func validateDuration(fl validator.FieldLevel) bool {
	_, err := time.ParseDuration(fl.Field().String())
	return err == nil
}

// Validate validates the Config using struct tags and custom cross-field
// rules. Returns an error with actionable messages on failure. Missing
// provider credentials are never a validation error; such providers are
// reported unavailable at runtime instead.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateStoreBackend(); err != nil {
		return err
	}
	if err := c.validateCacheBackend(); err != nil {
		return err
	}
	return c.validateAuditBackend()
}

// validateStoreBackend ensures the sqlite backend has a database path.
func (c *Config) validateStoreBackend() error {
	if c.Store.Backend == "sqlite" && c.Store.Path == "" {
		return errors.New("store: sqlite backend requires path")
	}
	return nil
}

// validateCacheBackend ensures the redis backend has an address.
func (c *Config) validateCacheBackend() error {
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return errors.New("cache: redis backend requires redis.addr")
	}
	return nil
}

// validateAuditBackend ensures file and sqlite audit backends have their
// destinations. The sqlite audit backend shares the store's database, so
// it requires the store backend to be sqlite too.
func (c *Config) validateAuditBackend() error {
	switch c.Audit.Backend {
	case "file":
		if c.Audit.Dir == "" {
			return errors.New("audit: file backend requires dir")
		}
	case "sqlite":
		if c.Store.Backend != "sqlite" {
			return errors.New("audit: sqlite backend requires store.backend to be sqlite")
		}
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to
// user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "duration":
		return fmt.Sprintf("%s must be a valid duration (e.g. \"30s\", \"5m\")", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
