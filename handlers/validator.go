package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator with the custom rules used by request bodies.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("path_segment", validatePathSegment)
	return v
}

// validatePathSegment rejects values that would split a document path.
func validatePathSegment(fl validator.FieldLevel) bool {
	return !strings.Contains(fl.Field().String(), "/")
}

// validationMessage turns validator errors into a short client message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			fields = append(fields, fe.Field())
			continue
		}
		return fmt.Sprintf("Invalid value for %s", fe.Field())
	}
	return "Missing required fields: " + strings.Join(fields, ", ")
}
