package config

import (
	"github.com/go-playground/validator/v10"
)

var severityNames = map[string]struct{}{
	"INFO": {}, "WARNING": {}, "ERROR": {}, "CRITICAL": {},
}

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("severity", validateSeverity)
}

// validateSeverity accepts the canonical upper-case severity names.
func validateSeverity(fl validator.FieldLevel) bool {
	_, ok := severityNames[fl.Field().String()]
	return ok
}
