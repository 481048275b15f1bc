package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cppla/blogapi/utils"
)

// Field rules shared by create and update.
const (
	ruleFirstName   = "required,min=1,max=64"
	ruleLastName    = "required,min=1,max=64"
	ruleEmail       = "required,email,max=255"
	rulePassword    = "required,min=6,max=72"
	ruleTitle       = "required,min=3,max=100"
	ruleDescription = "required,min=10,max=255"
	ruleTags        = "required,min=1,dive,required,max=64"
	ruleBody        = "required,min=20"
	ruleState       = "omitempty,oneof=draft published"
)

// ValidationMessage is the client message of every validation failure.
const ValidationMessage = "Validation Error"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// fieldCheck pairs a value with its field name and rule.
type fieldCheck struct {
	name  string
	value interface{}
	rule  string
}

// checkFields validates every check and folds all failures into one
// ValidationError whose Err lists them in order.
func checkFields(checks ...fieldCheck) error {
	var details []string
	for _, c := range checks {
		err := validate.Var(c.value, c.rule)
		if err == nil {
			continue
		}
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return internal("validation failed", err)
		}
		for _, fe := range errs {
			details = append(details, describe(c.name, fe))
		}
	}
	if len(details) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Message: ValidationMessage, Err: errors.New(strings.Join(details, ", "))}
}

func describe(name string, fe validator.FieldError) string {
	// dive failures carry the element index, e.g. "[0]"
	if fe.Field() != "" && strings.HasPrefix(fe.Field(), "[") {
		name += fe.Field()
	}
	isList := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", name)
	case "min":
		if isList {
			return fmt.Sprintf("%q must contain at least %s item(s)", name, fe.Param())
		}
		return fmt.Sprintf("%q should have a minimum length of %s", name, fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("%q must contain at most %s items", name, fe.Param())
		}
		return fmt.Sprintf("%q should have a maximum length of %s", name, fe.Param())
	case "email":
		return fmt.Sprintf("%q must be a valid email", name)
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%q failed %s", name, fe.Tag())
	}
}

// ValidationDetails returns the per-field messages of a validation error.
func ValidationDetails(err error) string {
	var se *Error
	if !errors.As(err, &se) || se.Kind != KindValidation || se.Err == nil {
		return ""
	}
	return se.Err.Error()
}

func cleanText(s string) string {
	return strings.TrimSpace(utils.SanitizeText(s))
}

func cleanBody(s string) string {
	return strings.TrimSpace(utils.Sanitize(s))
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, cleanText(t))
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
