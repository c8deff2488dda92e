// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// TagIdentifier accepts trimmed, printable strings without control
// characters. Product, store and customer IDs use it.
const TagIdentifier = "identifier"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule, shaped for API error details.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// RequestValidationError collects every failed rule of one request.
type RequestValidationError struct {
	fields []FieldError
}

// Fields returns the failed rules in declaration order.
func (e *RequestValidationError) Fields() []FieldError {
	return e.fields
}

// Error joins the per-field messages.
func (e *RequestValidationError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.fields))
	for i, f := range e.fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the shared validator, built on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation(TagIdentifier, isIdentifier); err != nil {
			panic(fmt.Sprintf("register %s validator: %v", TagIdentifier, err))
		}
	})
	return validate
}

func isIdentifier(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	if strings.TrimSpace(s) != s {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// ValidateStruct checks s against its validate tags. It returns nil when s
// is valid.
func ValidateStruct(s interface{}) *RequestValidationError {
	return convert(GetValidator().Struct(s), "")
}

// ValidateVar checks a single value against tag, reporting failures under
// field.
func ValidateVar(field string, v interface{}, tag string) *RequestValidationError {
	return convert(GetValidator().Var(v, tag), field)
}

func convert(err error, field string) *RequestValidationError {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestValidationError{fields: []FieldError{{
			Field: field, Rule: "unknown", Message: err.Error(),
		}}}
	}
	out := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		name := fe.Field()
		if field != "" {
			name = field
		}
		out[i] = FieldError{
			Field:   name,
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: translate(name, fe),
		}
	}
	return &RequestValidationError{fields: out}
}

var messages = map[string]string{
	"required":    "%s is required",
	TagIdentifier: "%s must be printable without surrounding whitespace",
}

var messagesWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translate(field string, fe validator.FieldError) string {
	if tmpl, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := messagesWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param())
	}

	unit := ""
	switch fe.Kind().String() {
	case "string":
		unit = " characters"
	case "slice", "map", "array":
		unit = " items"
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, fe.Param(), unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
