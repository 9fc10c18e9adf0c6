package web

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/go-playground/validator/v10"
)

// ModelState collects validation errors per form field. The empty key
// holds errors that don't belong to a single field.
type ModelState map[string][]string

func (ms ModelState) AddModelError(key, message string) {
	ms[key] = append(ms[key], message)
}

func (ms ModelState) IsValid() bool {
	return ms.ErrorCount() == 0
}

func (ms ModelState) ErrorCount() int {
	n := 0
	for _, errs := range ms {
		n += len(errs)
	}
	return n
}

func (ms ModelState) Errors(key string) []string {
	return ms[key]
}

// Keys returns the keys that have errors in a stable order.
func (ms ModelState) Keys() []string {
	keys := make([]string, 0, len(ms))
	for k, errs := range ms {
		if len(errs) > 0 {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Overrides for messages that read badly when generated from the tag.
var validationMessages = map[string]string{
	"Email.email":             "Invalid email format",
	"ConfirmPassword.eqfield": "The password and confirmation password do not match.",
}

const invalidFormMessage = "The submitted form is invalid."

// newModelState converts a binding error into model state. Errors that
// are not validation errors (malformed numbers or dates) are reported
// under the empty key.
func newModelState(err error) ModelState {
	ms := ModelState{}
	if err == nil {
		return ms
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		ms.AddModelError("", invalidFormMessage)
		return ms
	}

	for _, fe := range validationErrs {
		ms.AddModelError(fe.Field(), validationMessage(fe))
	}
	return ms
}

func validationMessage(fe validator.FieldError) string {
	if msg, ok := validationMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}

	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", fe.Field())
	case "email":
		return fmt.Sprintf("The %s field is not a valid e-mail address.", fe.Field())
	case "min", "gte":
		if isString {
			return fmt.Sprintf("The %s must be at least %s characters long.", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s.", fe.Field(), fe.Param())
	case "max", "lte":
		if isString {
			return fmt.Sprintf("The %s must be at most %s characters long.", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("The %s must be at most %s.", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", fe.Field(), fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s must match %s.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", fe.Field())
	}
}
