package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name so errors line up with request bodies.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// messageFor maps a failed validator tag to one of the Msg* keys.
func messageFor(tag string) string {
	switch tag {
	case "required":
		return MsgBlank
	case "max":
		return MsgTooLong
	default:
		return MsgInvalid
	}
}

// validateEntity runs struct validation on v and converts failures into a
// *ValidationError for entity. It returns nil when v is valid.
func validateEntity(entity string, v any) *ValidationError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	ve := NewValidationError(entity)
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		ve.Add(fieldBase, MsgInvalid)
		return ve
	}
	for _, fe := range fes {
		ve.Add(fe.Field(), messageFor(fe.Tag()))
	}
	return ve
}
