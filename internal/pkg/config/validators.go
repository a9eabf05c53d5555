// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Validator is one rule set applied to a loaded Config.
type Validator interface {
	Validate(cfg *Config) error
}

// ValidatorsFor returns the rule sets that apply to the config's environment.
func ValidatorsFor(cfg *Config) []Validator {
	validators := []Validator{&BasicValidator{}}
	if cfg.IsProduction() {
		validators = append(validators, &ProductionValidator{}, &SecurityValidator{})
	}
	return validators
}

// RunValidators stops at the first failing rule set.
func RunValidators(cfg *Config, validators ...Validator) error {
	for _, v := range validators {
		if err := v.Validate(cfg); err != nil {
			return err
		}
	}
	return nil
}

// BasicValidator applies the `validate` struct tags plus the rules that
// span sections.
type BasicValidator struct{}

func (v *BasicValidator) Validate(cfg *Config) error {
	if err := structRules.Struct(cfg); err != nil {
		return describeValidation(err)
	}
	if !cfg.Files.UseLocalStorage && cfg.AWS.S3Bucket == "" {
		return fmt.Errorf("%w: AWS.S3Bucket", ErrMissingRequiredConfig)
	}
	return nil
}

// ProductionValidator rejects development defaults.
type ProductionValidator struct{}

func (v *ProductionValidator) Validate(cfg *Config) error {
	if strings.HasPrefix(cfg.Database.Password, "MISSING_") || cfg.Database.Password == "pharmabook_dev" {
		return fmt.Errorf("%w: database password", ErrMissingRequiredConfig)
	}
	if cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("database SSL must be enabled in production")
	}
	if !cfg.Security.SecureHeaders {
		return fmt.Errorf("secure headers must be enabled in production")
	}
	if cfg.Files.UseLocalStorage {
		return fmt.Errorf("local file storage cannot be used in production")
	}
	return nil
}

type SecurityValidator struct{}

func (v *SecurityValidator) Validate(cfg *Config) error {
	if cfg.Security.JWTSecret == "development-secret-change-in-production" {
		return fmt.Errorf("default JWT secret cannot be used in production")
	}
	if len(cfg.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("wildcard origin (*) not allowed in production")
		}
	}
	return nil
}

var structRules = validator.New(validator.WithRequiredStructEnabled())

// describeValidation reports the first failing field by its path, e.g.
// "Redis.PoolSize must satisfy gt=0".
func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	if fe.Tag() == "required" {
		return fmt.Errorf("%w: %s", ErrMissingRequiredConfig, field)
	}
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return fmt.Errorf("%s must satisfy %s", field, rule)
}
