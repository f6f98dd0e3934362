// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package rmanager

// SyntaxError wraps a "Cannot understand: ..." response.
type SyntaxError struct{ Text string }

func (e *SyntaxError) Error() string { return "rmanager: " + e.Text }

// PermissionError wraps a "Not authenticated!" response to a command that
// required a higher auth level than the session currently holds.
type PermissionError struct{ Text string }

func (e *PermissionError) Error() string { return "rmanager: " + e.Text }

// AuthenticationError is returned when auth fails, or when the session
// requires a password the caller never supplied.
type AuthenticationError struct{ Text string }

func (e *AuthenticationError) Error() string { return "rmanager: " + e.Text }

// RuntimeError wraps a domain-specific parse failure, such as an
// unrecognized uptime response.
type RuntimeError struct{ Text string }

func (e *RuntimeError) Error() string { return "rmanager: " + e.Text }
