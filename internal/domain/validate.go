package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// RegisterEnum registers a named validation tag that accepts a string field
// when valid returns true. Entity packages call it from init.
func RegisterEnum(tag string, valid func(string) bool) {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return valid(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// Validate checks the struct tags of v and returns an ErrValidation-wrapped
// error describing the first failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return fmt.Errorf("%w: %s", ErrValidation, describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "gte":
		return fe.Field() + " must be >= " + fe.Param()
	case "min":
		return fe.Field() + " must not be empty"
	case "max":
		return fe.Field() + " exceeds " + fe.Param() + " characters"
	default:
		return fmt.Sprintf("%s is invalid (%v)", fe.Field(), fe.Value())
	}
}
