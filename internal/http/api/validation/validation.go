// Package validation checks request bodies, queries and path parameters before they reach a store.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidJSON marks a request body that is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON in request body")

// FieldError is one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors aggregates every violation found in a request.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

var radiusOperators = map[string]struct{}{
	"=": {}, ":=": {}, "==": {}, "+=": {}, "!=": {}, ">": {}, ">=": {},
	"<": {}, "<=": {}, "=~": {}, "!~": {}, "=*": {}, "!*": {},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
	_ = v.RegisterValidation("radius_op", func(fl validator.FieldLevel) bool {
		_, ok := radiusOperators[fl.Field().String()]
		return ok
	})
	return v
}

// Struct runs the declarative constraints on v and returns every violation.
func Struct(v any) error {
	errValidate := validate.Struct(v)
	if errValidate == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(errValidate, &verrs) {
		return errValidate
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "alphanum":
		return fmt.Sprintf("%s must contain only alphanumeric characters", field)
	case "ip":
		return fmt.Sprintf("%s must be a valid IP address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "radius_op":
		return fmt.Sprintf("%s must be a valid RADIUS operator", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// BindJSON decodes the request body into dst and validates it.
// An empty body decodes as an empty object. Type mismatches are reported per field
// together with any constraint violations.
func BindJSON(c *gin.Context, dst any) error {
	var errs Errors
	if errBind := c.ShouldBindJSON(dst); errBind != nil && !errors.Is(errBind, io.EOF) {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(errBind, &maxErr):
			return errBind
		case errors.As(errBind, &typeErr):
			if typeErr.Field == "" {
				return Errors{{Field: "body", Message: "request body must be a JSON object"}}
			}
			errs = append(errs, FieldError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("%s must be %s", typeErr.Field, jsonKind(typeErr.Type)),
			})
		default:
			return ErrInvalidJSON
		}
	}

	errValidate := Struct(dst)
	var verrs Errors
	if errValidate != nil && !errors.As(errValidate, &verrs) {
		return errValidate
	}
	for _, fe := range verrs {
		if !errs.has(fe.Field) {
			errs = append(errs, fe)
		}
	}
	if checker, ok := dst.(fieldChecker); ok {
		errs = append(errs, checker.validateFields()...)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Bool:
		return "a boolean"
	default:
		return "a " + t.Kind().String()
	}
}

// fieldChecker is implemented by requests with rules spanning several fields.
type fieldChecker interface {
	validateFields() Errors
}
