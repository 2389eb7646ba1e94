package models

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Shared validator instance; tag rules live on the request structs.
var validate = validator.New()

// fieldErrors runs the tag rules and returns the failing field names.
func fieldErrors(s interface{}) []validator.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	return verrs
}
