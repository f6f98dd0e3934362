// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yatecmd implements the fifteen Yate external-module wire command
// kinds as a tagged variant, each with a typed, declared-order field list
// and a static keyword-indexed registry built at package init.
package yatecmd

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies one of the fifteen wire command kinds.
type Kind int

const (
	KindConnect Kind = iota
	KindError
	KindInstall
	KindInstallReply
	KindMessage
	KindMessageReply
	KindOutput
	KindSetLocal
	KindSetLocalReply
	KindUnInstall
	KindUnInstallReply
	KindUnWatch
	KindUnWatchReply
	KindWatch
	KindWatchReply
)

// Command is implemented by every wire command kind. RenderFields returns
// the command's fields, already wire-encoded, in declared order (not
// including the keyword).
type Command interface {
	Kind() Kind
	Keyword() string
	RenderFields() []string
}

type kindEntry struct {
	keyword    string
	fieldCount int
	parse      func(fields []string) (Command, error)
}

var registry = map[string]kindEntry{}

func register(keyword string, fieldCount int, parse func([]string) (Command, error)) {
	registry[keyword] = kindEntry{keyword: keyword, fieldCount: fieldCount, parse: parse}
}

// FieldCount returns the number of wire fields declared for keyword, and
// whether keyword is registered.
func FieldCount(keyword string) (int, bool) {
	e, ok := registry[keyword]
	return e.fieldCount, ok
}

// ParseByKeyword dispatches fields (already split positionally by the
// framer) to the command kind registered for keyword.
func ParseByKeyword(keyword string, fields []string) (Command, error) {
	e, ok := registry[keyword]
	if !ok {
		return nil, ErrUnknownKeyword
	}
	return e.parse(fields)
}

// Equal reports whether a and b produce the same wire representation.
func Equal(a, b Command) bool {
	return strings.Join(append([]string{a.Keyword()}, a.RenderFields()...), ":") ==
		strings.Join(append([]string{b.Keyword()}, b.RenderFields()...), ":")
}

func padFields(fields []string, n int) []string {
	if len(fields) >= n {
		return fields
	}
	out := make([]string, n)
	copy(out, fields)
	return out
}

func optStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseIntField(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseOptIntField(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func renderOptInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func parseBoolField(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, &fieldError{field: "success", err: ErrInvalidBoolean(s)}
	}
}

func renderBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func parseDateTimeField(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(n, 0).UTC(), nil
}

func renderDateTime(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
