// Package validation holds the shared validator instance. Field names in messages
// are the JSON names clients send.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"azbeauty-be/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "-" {
			return ""
		}
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Struct validates s and returns a VALIDATION_ERROR carrying every failing field.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// Var validates a single value against tag, reporting it under field.
func Var(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			msg := field + " " + message(errs[0])
			return apperror.Validation(msg).WithDetails(map[string]string{field: message(errs[0])})
		}
		return apperror.Wrap(apperror.CodeValidation, err, field+" is invalid")
	}
	return nil
}

// DecodeJSONBody decodes a request body into dest and validates it.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return apperror.Wrap(apperror.CodeValidation, err, "Invalid JSON body")
	}
	return Struct(dest)
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return apperror.Wrap(apperror.CodeValidation, err, "validation failed")
	}

	details := make(map[string]string, len(errs))
	var first string
	for _, fe := range errs {
		field := fieldPath(fe)
		msg := message(fe)
		details[field] = msg
		if first == "" {
			first = field + " " + msg
		}
	}
	return apperror.Validation(first).WithDetails(details)
}

// fieldPath drops the root struct name: "CreateOrderInput.items[0].quantity" becomes "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_with", "required_without":
		return "is required"
	case "min":
		if isText(fe) {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isText(fe) {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}

func isText(fe validator.FieldError) bool {
	return fe.Kind() == reflect.String
}
