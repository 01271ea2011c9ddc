// Package validation wraps a shared go-playground validator and turns field
// errors into readable messages wrapped in domain.ErrInvalidInput.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/msomdec/skill-match/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the process-wide validator. Field names in messages
// use the json tag so they match what API clients sent.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("team_category", inList(domain.TeamCategories))
		_ = validate.RegisterValidation("team_role", inList(domain.TeamRoles))
		_ = validate.RegisterValidation("team_type", inList(domain.TeamTypes))
	})
	return validate
}

func inList(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	}
}

// Struct validates s. The returned error wraps domain.ErrInvalidInput and
// lists every failing field.
func Struct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	messages := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		messages[i] = translateError(fe)
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(messages, "; "))
}

var errorMessageTemplates = map[string]string{
	"required":      "%s is required",
	"email":         "%s must be a valid email address",
	"url":           "%s must be a valid URL",
	"numeric":       "%s must contain only digits",
	"team_category": "%s must be one of: " + strings.Join(domain.TeamCategories, ", "),
	"team_role":     "%s must be one of: " + strings.Join(domain.TeamRoles, ", "),
	"team_type":     "%s must be one of: " + strings.Join(domain.TeamTypes, ", "),
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"len":   "%s must be exactly %s characters",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
