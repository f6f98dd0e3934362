// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yatecodec implements the Yate "up-coded" string escaping scheme
// used on the external module wire protocol.
package yatecodec

import (
	"fmt"
	"strings"
)

// ErrTruncatedEscape is returned by Decode when the input ends with an
// unterminated '%' escape sequence.
var ErrTruncatedEscape = fmt.Errorf("yatecodec: truncated escape sequence at end of string")

// Encode returns the up-coded representation of s: every byte below 32 and
// every ':' is replaced by '%' followed by the byte value plus 64; '%' is
// doubled.
func Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%':
			b.WriteString("%%")
		case c < 32 || c == ':':
			b.WriteByte('%')
			b.WriteByte(c + 64)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// EncodeKVPSegment is like Encode but additionally escapes '=', for use
// inside a KeyValueList key or value where '=' would otherwise be ambiguous
// with the segment separator.
func EncodeKVPSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%':
			b.WriteString("%%")
		case c < 32 || c == ':' || c == '=':
			b.WriteByte('%')
			b.WriteByte(c + 64)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// Decode reverses Encode. A trailing unterminated '%' is a decode error.
func Decode(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}

		i++
		if i >= len(s) {
			return "", ErrTruncatedEscape
		}

		if s[i] == '%' {
			b.WriteByte('%')
		} else {
			b.WriteByte(s[i] - 64)
		}
	}

	return b.String(), nil
}
