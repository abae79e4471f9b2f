// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
Package validation wraps go-playground/validator v10 for configuration and
ops HTTP request validation.

The singleton validator reports fields by their koanf key (falling back to
the json name), so a failed config check reads "dispatch.stream.name is
required" rather than a Go field path. ValidateStruct returns Errors, whose
Details feed the ops HTTP error body.

Built-in tags cover every current rule: required, min/max on numbers,
strings and durations, oneof, latitude/longitude and nefield.
*/
package validation
