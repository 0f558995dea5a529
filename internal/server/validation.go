package server

import (
	"github.com/harshitajain06/Finji/internal/funding"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	return &CustomValidator{v: validator.New()}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// ToFieldErrors maps validator.ValidationErrors onto readable field errors.
func ToFieldErrors(err error) []funding.FieldError {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []funding.FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]funding.FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, funding.FieldError{Field: field, Message: "is required"})
		case "email":
			out = append(out, funding.FieldError{Field: field, Message: "must be a valid email address"})
		case "min":
			out = append(out, funding.FieldError{Field: field, Message: "must be at least " + e.Param() + " characters"})
		case "oneof":
			out = append(out, funding.FieldError{Field: field, Message: "must be one of: " + e.Param()})
		default:
			out = append(out, funding.FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
