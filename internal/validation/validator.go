// Package validation checks decoded request bodies against their schema
// using go-playground/validator.
//
// A single validator instance is shared by the whole process. It caches the
// parsed struct tags of every type it has seen, so building one per request
// would throw that work away.
//
// Field names in violations are the JSON names (content, messageId, ...)
// rather than the Go names, because they are reported back to the browser
// that sent the body.
//
// Example:
//
//	type createMessageRequest struct {
//	    Content  string `json:"content"  validate:"required"`
//	    Category string `json:"category" validate:"required,max=64"`
//	}
//
//	if violations := validation.Struct(&req); len(violations) > 0 {
//	    return apperror.Invalid("Invalid message data", violations)
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/whispering-network/internal/apperror"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report `json:"content"` as "content" instead of "Content".
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		// notblank rejects strings that are empty once whitespace is trimmed.
		// `required` alone accepts "   ".
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.String {
				return true
			}
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Struct validates s and returns one violation per failing field.
// It returns nil when s is valid.
func Struct(s any) []apperror.Violation {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []apperror.Violation{{Field: "body", Tag: "invalid", Message: err.Error()}}
	}

	violations := make([]apperror.Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, apperror.Violation{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: translate(fe),
		})
	}
	return violations
}

var messageTemplates = map[string]string{
	"required": "%s is required",
	"notblank": "%s must not be blank",
	"url":      "%s must be a valid URL",
	"gt":       "%s must be a positive number",
}

func translate(fe validator.FieldError) string {
	field := fe.Field()
	if tmpl, ok := messageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}

	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
