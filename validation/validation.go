// Package validation binds request bodies and path parameters with gin and
// turns validator violations into field-level errors.
package validation

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chirp/apperror"
)

const (
	locationBody   = "body"
	locationParams = "params"

	msgValidation  = "Validation Error"
	msgInvalidData = "Invalid data"
)

var registerOnce sync.Once

var isObjectID validator.Func = func(fl validator.FieldLevel) bool {
	return primitive.IsValidObjectID(fl.Field().String())
}

// Register installs the custom rules and JSON field naming on gin's validator.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("objectid", isObjectID)
	})
}

// BindJSON decodes and validates the request body into obj.
func BindJSON(c *gin.Context, obj any) error {
	Register()

	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		// an empty body is validated as an empty object
		err = binding.Validator.ValidateStruct(obj)
	}
	return translate(err, obj, locationBody)
}

// BindURI validates path parameters into obj.
func BindURI(c *gin.Context, obj any) error {
	Register()
	return translate(c.ShouldBindUri(obj), obj, locationParams)
}

// Combine merges the results of several binds so every failing field is
// reported at once. A failure without fields is returned as is when no
// other bind reported fields.
func Combine(errs ...error) error {
	var first error
	var fields []apperror.FieldError
	for _, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		fields = append(fields, apperror.From(err).Fields...)
	}
	if first == nil || len(fields) == 0 {
		return first
	}
	return apperror.Validation(msgValidation, fields...)
}

func translate(err error, obj any, location string) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperror.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperror.FieldError{
				Field:   location + "." + fe.Field(),
				Message: message(fe, labelOf(obj, fe.StructField(), fe.Field())),
			})
		}
		return apperror.Validation(msgValidation, fields...)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperror.Validation(msgValidation, apperror.FieldError{
			Field:   location + "." + typeErr.Field,
			Message: fmt.Sprintf("Expected %s, received %s", typeErr.Type.Kind(), typeErr.Value),
		})
	}

	return apperror.Validation(msgInvalidData)
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s %s long.", label, fe.Param(), plural(fe.Param(), "character"))
	case "max":
		return fmt.Sprintf("%s cannot exceed %s %s.", label, fe.Param(), plural(fe.Param(), "character"))
	case "email":
		return "Invalid email address"
	case "objectid":
		return "Invalid id"
	default:
		return label + " is invalid"
	}
}

func plural(n, word string) string {
	if n == "1" {
		return word
	}
	return word + "s"
}

// fieldName reports fields by their json or uri name.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "uri"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

// labelOf reads the `label` tag of the named struct field, falling back to the field name.
func labelOf(obj any, structField, fallback string) string {
	t := reflect.TypeOf(obj)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(structField); ok {
			if label := f.Tag.Get("label"); label != "" {
				return label
			}
		}
	}
	return fallback
}
