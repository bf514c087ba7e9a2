package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	// Report fields by their JSON names so errors match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &CustomValidator{
		validator: v,
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errs[field] = field + " is required"
			case "email":
				errs[field] = field + " must be a valid email address"
			case "min":
				errs[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errs[field] = field + " must be at most " + e.Param() + " characters"
			case "len":
				errs[field] = field + " must be exactly " + e.Param() + " characters"
			case "gte":
				errs[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errs[field] = field + " must be less than or equal to " + e.Param()
			case "oneof":
				errs[field] = field + " must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
			case "iso4217":
				errs[field] = field + " must be an ISO 4217 currency code"
			case "eth_addr":
				errs[field] = field + " must be a 0x-prefixed wallet address"
			case "uuid":
				errs[field] = field + " must be a valid UUID"
			case "numeric":
				errs[field] = field + " must be numeric"
			case "url":
				errs[field] = field + " must be a valid URL"
			default:
				errs[field] = field + " is invalid"
			}
		}
	}

	return errs
}
