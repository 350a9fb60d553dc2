package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that
// cannot be expressed in tags.
//
// Returns an error describing the first validation failure.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The badger backend needs somewhere to put its files
	if cfg.Database.Type == "badger" {
		path, ok := cfg.Database.Badger["db_path"].(string)
		if !ok || path == "" {
			return fmt.Errorf("database.badger: db_path is required")
		}
	}

	// Scratch and store directories must differ: builds must never
	// scribble inside the store root
	root := strings.TrimSuffix(cfg.Store.Root, "/")
	if cfg.Store.TmpDir == cfg.Store.Root || strings.HasPrefix(cfg.Store.TmpDir, root+"/") {
		return fmt.Errorf("store: tmp_dir must not be root or lie inside it")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
