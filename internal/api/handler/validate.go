package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/breatheroute/airdash/internal/api/models"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
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

// fieldErrors converts a validation failure into problem field errors.
func fieldErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErr := models.FieldError{Field: fe.Field(), Code: models.CodeInvalidValue}
		switch fe.Tag() {
		case "required":
			fieldErr.Code = models.CodeRequired
			fieldErr.Message = fe.Field() + " is required"
		case "gt":
			fieldErr.Message = fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
		default:
			fieldErr.Message = fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
		}
		out = append(out, fieldErr)
	}
	return out
}
