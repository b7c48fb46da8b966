package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// emailPattern is the address shape accepted at signup.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const (
	msgProvideCredentials = "Please provide email and password"
	msgInvalidEmail       = "Invalid email format"
	msgShortPassword      = "Password must be at least 6 characters long"
	msgLongPassword       = "Password must be at most 72 bytes long"
	msgProvidePost        = "Please provide title and content"
	msgTitleTooLong       = "Title cannot be more than 100 characters"
	msgTitleEmpty         = "Title cannot be empty"
	msgContentEmpty       = "Content cannot be empty"
	msgNothingToUpdate    = "Please provide at least one of title, content or isDraft"
	msgProvideTopicStyle  = "Please provide topic and style"
	msgInvalidStyle       = "Invalid style. Must be one of: professional, casual, technical"
)

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag or a nil func.
	_ = v.RegisterValidation("address", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// fieldErrors returns the failing (field, tag) pairs of a struct validation, in declaration order.
func fieldErrors(err error) validator.ValidationErrors {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return vErrs
	}
	return nil
}

func hasTag(vErrs validator.ValidationErrors, tag string) bool {
	for _, fe := range vErrs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}

func failedFields(vErrs validator.ValidationErrors) []string {
	fields := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
