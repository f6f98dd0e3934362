// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yateframe translates between wire lines and yatecmd.Command
// values: one line in, one Command out, and back.
package yateframe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yate-project/goyate/internal/yatecmd"
)

// ParseError wraps a failure to parse a single wire line, carrying the
// offending line for logging.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("yateframe: parse %q: %s", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse splits a wire line into its keyword and positional fields, and
// dispatches to the matching yatecmd.Command kind. The last declared field
// absorbs any remaining colons in the line, so raw-text fields (Output,
// Error.Original) and KVP segments round-trip untouched.
func Parse(line string) (yatecmd.Command, error) {
	keyword, rest, found := strings.Cut(line, ":")
	if !found {
		keyword, rest = line, ""
	}

	n, ok := yatecmd.FieldCount(keyword)
	if !ok {
		return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: %q", yatecmd.ErrUnknownKeyword, keyword)}
	}

	fields := strings.SplitN(rest, ":", n)

	cmd, err := yatecmd.ParseByKeyword(keyword, fields)
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}

	return cmd, nil
}

// Render serializes cmd into a single wire line, without a trailing
// newline: keyword followed by its fields in declared order, joined by
// ':'. Empty optional fields are preserved as empty segments.
func Render(cmd yatecmd.Command) string {
	parts := make([]string, 0, 1+len(cmd.RenderFields()))
	parts = append(parts, cmd.Keyword())
	parts = append(parts, cmd.RenderFields()...)
	return strings.Join(parts, ":")
}

// IsUnknownKeyword reports whether err (or a wrapped cause) indicates the
// wire line used a keyword with no registered command kind.
func IsUnknownKeyword(err error) bool {
	return errors.Is(err, yatecmd.ErrUnknownKeyword)
}
