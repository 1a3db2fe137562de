package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks a Config structurally (struct tags) and semantically.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate reports every structural violation at once, then the first semantic one.
func (v *Validator) Validate(cfg *Config) error {
	if err := v.validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			msgs := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("%w:\n- %s", ErrInvalidConfig, strings.Join(msgs, "\n- "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return v.validateSemantics(cfg)
}

func (v *Validator) validateSemantics(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Models))
	for _, m := range cfg.Models {
		if seen[m.Name] {
			return fmt.Errorf("%w: duplicate model name %q", ErrInvalidConfig, m.Name)
		}
		seen[m.Name] = true

		if err := m.Schema.Validate(); err != nil {
			return fmt.Errorf("%w: model %q: %w", ErrInvalidConfig, m.Name, err)
		}
		for _, key := range m.PrimaryKeys {
			if !m.Schema.Has(key) {
				return fmt.Errorf("%w: model %q: primary key %q is not in the schema", ErrInvalidConfig, m.Name, key)
			}
		}
	}

	if _, err := cfg.Lock.ManagerConfig(); err != nil {
		return err
	}
	return nil
}
