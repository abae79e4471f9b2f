// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule. Path uses koanf or json names, e.g.
// "dispatch.stream.name".
type FieldError struct {
	Path    string
	Tag     string
	Param   string
	Value   any
	Message string
}

func (e FieldError) Error() string { return e.Message }

// Errors collects every failed rule of one struct.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e))
	for i := range e {
		messages[i] = e[i].Message
	}
	return strings.Join(messages, "; ")
}

// Details is the error detail map for ops HTTP responses. A single failure
// is reported flat; several are listed under "fields".
func (e Errors) Details() map[string]any {
	switch len(e) {
	case 0:
		return nil
	case 1:
		return map[string]any{"field": e[0].Path, "tag": e[0].Tag, "value": e[0].Value}
	}
	fields := make([]map[string]any, len(e))
	for i := range e {
		fields[i] = map[string]any{"field": e[i].Path, "tag": e[i].Tag, "message": e[i].Message}
	}
	return map[string]any{"fields": fields}
}

// GetValidator returns the shared validator, built on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(tagName)
	})

	return validate
}

// tagName reports fields by their koanf key, falling back to the json name,
// so errors point at the setting or request field the operator actually wrote.
func tagName(f reflect.StructField) string {
	for _, key := range []string{"koanf", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// ValidateStruct validates s with the shared validator and returns nil when
// every rule passes.
func ValidateStruct(s any) Errors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Path: "unknown", Tag: "unknown", Message: err.Error()}}
	}

	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		path := fieldPath(fe)
		out[i] = FieldError{
			Path:    path,
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: translateError(fe, path),
		}
	}
	return out
}

// fieldPath drops the root struct name from the namespace:
// "Config.dispatch.stream.name" becomes "dispatch.stream.name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

var errorMessageTemplates = map[string]string{
	"required":  "%s is required",
	"latitude":  "%s must be a valid latitude (-90 to 90)",
	"longitude": "%s must be a valid longitude (-180 to 180)",
	"url":       "%s must be a valid URL",
	"hostname":  "%s must be a valid hostname",
}

// Templates that also print the tag parameter.
var errorMessageWithParam = map[string]string{
	"oneof":                "%s must be one of: %s",
	"gte":                  "%s must be greater than or equal to %s",
	"lte":                  "%s must be less than or equal to %s",
	"gt":                   "%s must be greater than %s",
	"lt":                   "%s must be less than %s",
	"nefield":              "%s must differ from %s",
	"required_without_all": "%s is required when none of %s are set",
}

// translateError converts a validator.FieldError to a human-readable message.
func translateError(fe validator.FieldError, field string) string {
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}

	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	return translateMinMax(fe, field, tag, param)
}

// translateMinMax handles min/max validation with type-specific messages.
func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	isString := fe.Kind() == reflect.String

	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
