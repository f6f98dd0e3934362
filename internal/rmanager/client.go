// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rmanager is a client for Yate's telnet-framed remote-management
// protocol: connect, negotiate an auth level, and send line commands that
// come back either as a single line or as a %%+/%%- delimited batch.
package rmanager

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/yate-project/goyate/pkg/yatelog"
	"github.com/yate-project/goyate/pkg/yatemetrics"
)

// Telnet IAC option-negotiation bytes the session must suppress without
// ever entering any mode.
const (
	iac  byte = 255
	dont byte = 254
	do   byte = 253
	wont byte = 252
	will byte = 251
)

const readChunkSize = 8192

// AuthLevel is the auth level the session has reached so far.
type AuthLevel int

const (
	AuthLevelNone AuthLevel = iota
	AuthLevelUser
	AuthLevelAdmin
)

func (a AuthLevel) String() string {
	switch a {
	case AuthLevelUser:
		return "user"
	case AuthLevelAdmin:
		return "admin"
	default:
		return "none"
	}
}

// Reply is a command's response: either a single Line, or a Lines batch
// framed between a "%%+..." and a "%%-..." line.
type Reply struct {
	Line  string
	Lines []string
	Multi bool
}

// Session is one connected, authenticated rmanager control channel.
type Session struct {
	conn      net.Conn
	buf       []byte
	authLevel AuthLevel

	// Greeting is the banner line read immediately after connecting.
	Greeting string

	// AuditHook, if set, is called after every SendCmd completes
	// (successfully or not) with the full command text, its outcome, and
	// how long it took. Left nil, auditing is simply skipped.
	AuditHook func(command, outcome string, duration time.Duration)
}

// Dial connects to host:port, performs the auth-level handshake described
// in the protocol (output off / debug off / optional auth / color off),
// and returns a ready Session. An empty password is valid only if the
// server grants at least user level without one.
func Dial(host string, port int, password string) (*Session, error) {
	target := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", target, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("rmanager: dial %s: %w", target, err)
	}

	s := &Session{conn: conn}

	greeting, err := s.readLine()
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.Greeting = greeting

	if err := s.negotiateAuthLevel(password); err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := s.SendCmd("color off"); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

func (s *Session) negotiateAuthLevel(password string) error {
	if err := s.write("output off"); err != nil {
		return err
	}
	for {
		line, err := s.readLine()
		if err != nil {
			return err
		}
		if line == "Output mode: off" {
			s.authLevel = AuthLevelUser
			break
		}
		if line == "Not authenticated!" {
			break
		}
	}

	if s.authLevel == AuthLevelNone && password == "" {
		return &AuthenticationError{Text: "server requires authentication"}
	}

	if err := s.write("debug off"); err != nil {
		return err
	}
	for {
		line, err := s.readLine()
		if err != nil {
			return err
		}
		if strings.HasPrefix(line, "Debug level: ") {
			s.authLevel = AuthLevelAdmin
			break
		}
		if line == "Not authenticated!" {
			break
		}
	}

	if password != "" {
		if _, err := s.Auth(password); err != nil {
			return err
		}
	}

	return nil
}

// AuthLevel reports the session's current auth level.
func (s *Session) AuthLevel() AuthLevel { return s.authLevel }

// Auth sends "auth <password>" and updates the session's auth level from
// the response.
func (s *Session) Auth(password string) (AuthLevel, error) {
	reply, err := s.SendCmd("auth " + password)
	if err != nil {
		return s.authLevel, err
	}
	switch reply.Line {
	case "Authenticated successfully as admin!", "You are already authenticated as admin!":
		s.authLevel = AuthLevelAdmin
	case "Authenticated successfully as user!", "You are already authenticated as user!":
		s.authLevel = AuthLevelUser
	default:
		return s.authLevel, &AuthenticationError{Text: reply.Line}
	}
	return s.authLevel, nil
}

// Color toggles ANSI color in the server's text responses.
func (s *Session) Color(enable bool) error {
	word := "off"
	if enable {
		word = "on"
	}
	_, err := s.SendCmd("color " + word)
	return err
}

// Call places a channel on target.
func (s *Session) Call(channel, target string) (Reply, error) {
	return s.SendCmd("call " + channel + " " + target)
}

// Drop terminates channel, optionally with reason.
func (s *Session) Drop(channel, reason string) (Reply, error) {
	cmd := "drop " + channel
	if reason != "" {
		cmd += " " + reason
	}
	return s.SendCmd(cmd)
}

// Reload reloads the engine's configuration, or a single plugin if named.
func (s *Session) Reload(plugin string) (Reply, error) {
	cmd := "reload"
	if plugin != "" {
		cmd += " " + plugin
	}
	return s.SendCmd(cmd)
}

// Restart restarts the engine, immediately if now is set.
func (s *Session) Restart(now bool) (Reply, error) {
	cmd := "restart"
	if now {
		cmd += " now"
	}
	return s.SendCmd(cmd)
}

// StopEngine stops the engine, with exitCode if given.
func (s *Session) StopEngine(exitCode *int) (Reply, error) {
	cmd := "stop"
	if exitCode != nil {
		cmd += " " + strconv.Itoa(*exitCode)
	}
	return s.SendCmd(cmd)
}

// Control sends a control command against channel with the given
// operation and key=value parameters.
func (s *Session) Control(channel, operation string, kvp map[string]string) (Reply, error) {
	var b strings.Builder
	b.WriteString("control ")
	b.WriteString(channel)
	b.WriteString(" ")
	b.WriteString(operation)
	for k, v := range kvp {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(v)
	}
	return s.SendCmd(b.String())
}

// SendCmd sends command and reads its reply, classifying a
// "Cannot understand: " line as a SyntaxError and a "Not authenticated!"
// line as a PermissionError. A line starting with "%%+" opens a batch
// that continues until one starting with "%%-" closes it.
func (s *Session) SendCmd(command string) (Reply, error) {
	word, _, _ := strings.Cut(command, " ")
	start := time.Now()
	record := func(outcome string) {
		yatemetrics.RManagerCommands.WithLabelValues(word, outcome).Inc()
		if s.AuditHook != nil {
			s.AuditHook(command, outcome, time.Since(start))
		}
	}

	if err := s.write(command); err != nil {
		record("write_error")
		return Reply{}, err
	}

	line, err := s.readLine()
	if err != nil {
		record("read_error")
		return Reply{}, err
	}

	switch {
	case strings.HasPrefix(line, "Cannot understand: "):
		record("syntax_error")
		return Reply{}, &SyntaxError{Text: line}
	case line == "Not authenticated!":
		record("permission_error")
		return Reply{}, &PermissionError{Text: line}
	case strings.HasPrefix(line, "%%+"):
		var lines []string
		for {
			next, err := s.readLine()
			if err != nil {
				record("read_error")
				return Reply{}, err
			}
			if strings.HasPrefix(next, "%%-") {
				record("ok")
				return Reply{Lines: lines, Multi: true}, nil
			}
			lines = append(lines, next)
		}
	default:
		record("ok")
		return Reply{Line: line}, nil
	}
}

// Close sends "quit" and closes the underlying connection. Any error
// sending quit is logged, not returned, since the connection is being
// torn down regardless.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}

	reply, err := s.SendCmd("quit")
	if err != nil {
		yatelog.Debugf("rmanager: quit: %v", err)
	} else if reply.Line != "Goodbye!" {
		yatelog.Warnf("rmanager: unexpected quit reply: %q", reply.Line)
	}

	err = s.conn.Close()
	s.conn = nil
	return err
}

func (s *Session) write(command string) error {
	if s.conn == nil {
		return fmt.Errorf("rmanager: write on closed session")
	}
	if _, err := s.conn.Write([]byte(command + "\r\n")); err != nil {
		return fmt.Errorf("rmanager: write: %w", err)
	}
	return nil
}

func (s *Session) rawWrite(p []byte) {
	_, _ = s.conn.Write(p)
}

// readLine accumulates bytes in 8 KiB chunks, stripping and answering
// Telnet IAC option negotiation inline, until a full CRLF-terminated line
// is available.
func (s *Session) readLine() (string, error) {
	for {
		if idx := bytes.Index(s.buf, []byte("\r\n")); idx >= 0 {
			line := string(s.buf[:idx])
			s.buf = s.buf[idx+2:]
			return line, nil
		}

		chunk := make([]byte, readChunkSize)
		n, err := s.conn.Read(chunk)
		if n > 0 {
			s.buf = append(s.buf, s.handleTelnet(chunk[:n])...)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("rmanager: read: %w", err)
		}
	}
}

// handleTelnet strips IAC sequences from data, replying WONT to every DO
// and DONT to every WILL so the session never enters any telnet option
// mode; DONT and WONT are consumed silently.
func (s *Session) handleTelnet(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b != iac {
			out = append(out, b)
			continue
		}
		if i+2 >= len(data) {
			break
		}
		cmd, opt := data[i+1], data[i+2]
		switch cmd {
		case do:
			s.rawWrite([]byte{iac, wont, opt})
		case will:
			s.rawWrite([]byte{iac, dont, opt})
		}
		i += 2
	}
	return out
}
