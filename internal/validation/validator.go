// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package validation wraps go-playground/validator v10 behind a thread-safe
// singleton and translates failures into human-readable messages suitable
// for API error bodies.
//
//	type LoginRequest struct {
//	    Email    string `validate:"required,email"`
//	    Password string `validate:"required"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    // verr.Error() is safe to surface
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// RequestError aggregates the field errors of one request.
type RequestError struct {
	Fields []FieldError
}

// Error joins all field messages. The result contains no submitted values,
// so it is safe to return to clients.
func (e *RequestError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// Details returns structured per-field information for the API error body.
func (e *RequestError) Details() map[string]interface{} {
	fields := make([]map[string]interface{}, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = map[string]interface{}{
			"field": f.Field,
			"tag":   f.Tag,
		}
	}
	return map[string]interface{}{"fields": fields}
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates s, returning nil on success or a *RequestError
// describing every failed field.
func ValidateStruct(s interface{}) *RequestError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{Fields: []FieldError{{Message: "validation failed"}}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		})
	}
	return &RequestError{Fields: fields}
}

// translate produces a human-readable message for common tags.
func translate(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
