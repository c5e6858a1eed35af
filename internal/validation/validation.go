package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a field name to the list of messages for rules it broke. It is
// the `errors` object of a 422 response.
type Errors map[string][]string

// Add appends a message for a field. Handlers use it for rules struct tags
// cannot express, such as uniqueness against the store.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Has reports whether the field already failed an earlier rule; uniqueness
// checks are skipped for fields that did.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Validator wraps go-playground/validator so field errors surface under their
// JSON names with framework-style messages.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator configured for JSON tag names.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates v and folds any rule violations into errs.
func (vd *Validator) Struct(v any, errs Errors) {
	err := vd.validate.Struct(v)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add("request", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "eqfield":
		return "The password confirmation does not match."
	case "datetime":
		return fmt.Sprintf("The %s is not a valid date.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

// Taken returns the standard message for a uniqueness violation.
func Taken(field string) string {
	return fmt.Sprintf("The %s has already been taken.", strings.ReplaceAll(field, "_", " "))
}
