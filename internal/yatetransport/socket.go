// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatetransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

// Socket is the Transport used when the module connects out to a TCP or
// UNIX listener configured on the engine side.
type Socket struct {
	conn net.Conn

	mu     sync.Mutex
	closed bool
	acc    *lineAccumulator
}

// DialSocket connects to hostOrPath. A path beginning with '.' or '/' is
// treated as a UNIX socket; otherwise it is a TCP host requiring port.
// For TCP, every resolved address is tried in turn and the first
// successful connection wins.
func DialSocket(hostOrPath string, port int) (*Socket, error) {
	if hostOrPath == "" {
		return nil, errors.New("yatetransport: either a host or a path must be specified")
	}

	if strings.HasPrefix(hostOrPath, ".") || strings.HasPrefix(hostOrPath, "/") {
		conn, err := net.Dial("unix", hostOrPath)
		if err != nil {
			return nil, fmt.Errorf("yatetransport: dial unix %q: %w", hostOrPath, err)
		}
		return newSocket(conn), nil
	}

	if port == 0 {
		return nil, errors.New("yatetransport: port number must be specified for tcp hosts")
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(context.Background(), hostOrPath)
	if err != nil {
		return nil, fmt.Errorf("yatetransport: resolve %q: %w", hostOrPath, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("yatetransport: no addresses found for %q", hostOrPath)
	}

	var lastErr error
	for _, addr := range addrs {
		target := net.JoinHostPort(addr.IP.String(), strconv.Itoa(port))
		conn, err := net.Dial("tcp", target)
		if err == nil {
			return newSocket(conn), nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("yatetransport: failed to connect to %q: %w", hostOrPath, lastErr)
}

func newSocket(conn net.Conn) *Socket {
	s := &Socket{conn: conn}
	s.acc = newLineAccumulator(conn.Read)
	return s
}

func (s *Socket) ReadLine() (string, error) {
	return s.acc.readLine()
}

func (s *Socket) Write(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	_, err := io.WriteString(s.conn, line+"\n")
	return err
}

// Close shuts down the read side of the socket so in-flight writes from
// the Writer worker can still flush before the connection is torn down by
// a subsequent full Close.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if tcp, ok := s.conn.(*net.TCPConn); ok {
		_ = tcp.CloseRead()
		return nil
	}
	if unix, ok := s.conn.(*net.UnixConn); ok {
		_ = unix.CloseRead()
		return nil
	}
	return s.conn.Close()
}
