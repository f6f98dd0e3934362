// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatecmd

import "fmt"

var (
	errEmptyKVPKey = fmt.Errorf("yatecmd: key on key-value pair cannot be empty")

	// ErrUnknownKeyword is returned when a wire keyword has no registered
	// command kind.
	ErrUnknownKeyword = fmt.Errorf("yatecmd: unknown keyword")

	// ErrMissingRequiredField is returned when a required field is blank.
	ErrMissingRequiredField = fmt.Errorf("yatecmd: missing required field")
)

type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("yatecmd: field %q: %s", e.field, e.err)
}

func (e *fieldError) Unwrap() error { return e.err }

type invalidBooleanError string

func (e invalidBooleanError) Error() string {
	return fmt.Sprintf(`value must be "true" or "false", got %q`, string(e))
}

// ErrInvalidBoolean returns an error describing an unparsable Boolean field.
func ErrInvalidBoolean(s string) error {
	return invalidBooleanError(s)
}
