package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/authmaster/auth/token"
	"github.com/kbukum/authmaster/errors"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an AppError if there are validation errors, nil otherwise.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}

	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}

	appErr := errors.Validation(strings.Join(messages, "; "))
	appErr.Details = map[string]any{
		"fields": v.errors,
	}

	return appErr
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// KeyName checks that value can name a registry entry.
func (v *Validator) KeyName(field, value string) *Validator {
	if !isKeyName(value) {
		v.AddError(field, "must be a key name without whitespace")
	}
	return v
}

// KeyRefs checks that every name in refs is present in known.
func (v *Validator) KeyRefs(field string, refs []string, known map[string]bool) *Validator {
	for i, name := range refs {
		if !known[name] {
			v.AddError(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("references undefined key %q", name))
		}
	}
	return v
}

// Unique checks that values contains no duplicates.
func (v *Validator) Unique(field string, values []string) *Validator {
	seen := make(map[string]bool, len(values))
	for _, s := range values {
		if seen[s] {
			v.AddError(field, fmt.Sprintf("duplicate entry %q", s))
			continue
		}
		seen[s] = true
	}
	return v
}

// Expiry checks that a non-empty value parses as an expiry.
func (v *Validator) Expiry(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := token.ParseExpiry(value); err != nil {
		v.AddError(field, "must be a number of seconds or a duration like 1h, 2d")
	}
	return v
}
