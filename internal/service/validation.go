package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "technofest/internal/errors"
)

var validate = NewValidator()

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationFields turns a validator error into one message per field. The
// first failing rule of a field wins. overrides is keyed by "field.tag" or by
// "field" alone.
func ValidationFields(err error, overrides map[string]string) map[string]string {
	fields := map[string]string{}
	if err == nil {
		return fields
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		if msg, ok := overrides[name+"."+fe.Tag()]; ok {
			fields[name] = msg
			continue
		}
		if msg, ok := overrides[name]; ok {
			fields[name] = msg
			continue
		}
		fields[name] = defaultMessage(fe)
	}
	return fields
}

func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "url":
		return "Please enter a valid URL"
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("Must match the format %s", fe.Param())
	default:
		return "Invalid value"
	}
}

// validateStruct returns a *ValidationError or nil.
func validateStruct(s any, overrides map[string]string) error {
	return apperrors.NewValidationError(ValidationFields(validate.Struct(s), overrides))
}
