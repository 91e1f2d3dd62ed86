package engine

import (
	"errors"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is returned when a submitted form is incomplete or invalid.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		msgs = append(msgs, e.Fields[field])
	}
	return strings.Join(msgs, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// ratings are given in half stars
	_ = v.RegisterValidation("halfstep", func(fl validator.FieldLevel) bool {
		return math.Mod(fl.Field().Float()*2, 1) == 0
	})
	return v
}

// validateStruct validates s and converts validator errors into a *ValidationError.
func (e *Engine) validateStruct(s any) error {
	err := e.validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = formatValidationError(fe)
	}
	return &ValidationError{Fields: fields}
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "oneof":
		return e.Field() + " must be one of " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "lte":
		return e.Field() + " must be less than or equal to " + e.Param()
	case "halfstep":
		return e.Field() + " must be given in half steps"
	default:
		return e.Field() + " is invalid"
	}
}
