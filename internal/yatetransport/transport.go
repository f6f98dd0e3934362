// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yatetransport provides the byte-stream transport the Engine
// runs the wire protocol over: stdio, TCP/UNIX sockets, or (additively) a
// NATS subject pair. The stdio and socket transports read in 8 KiB chunks
// accumulated until a newline is found, and partial trailing data is
// retained for the next read; the NATS transport splits each received
// message on newlines.
package yatetransport

import (
	"bytes"
	"io"
)

const readChunkSize = 8192

// Transport is the pluggable collaborator the Engine drives: readline,
// write, close. The Engine calls ReadLine only from its reader goroutine
// and Write only from its writer goroutine, so the two run concurrently,
// and it may call Close from any goroutine while either is in progress.
type Transport interface {
	// ReadLine blocks until a full newline-terminated line is available
	// and returns it without the trailing newline. Returns io.EOF on
	// clean shutdown of the peer.
	ReadLine() (string, error)
	// Write sends a single rendered command line, without a trailing
	// newline; the transport appends it.
	Write(line string) error
	// Close releases the transport's resources. It is safe to call more
	// than once.
	Close() error
}

// lineAccumulator implements the chunked-read/newline-split behavior
// shared by every transport.
type lineAccumulator struct {
	buf  []byte
	read func(p []byte) (int, error)
}

func newLineAccumulator(read func(p []byte) (int, error)) *lineAccumulator {
	return &lineAccumulator{read: read}
}

func (a *lineAccumulator) readLine() (string, error) {
	for {
		if idx := bytes.IndexByte(a.buf, '\n'); idx >= 0 {
			line := string(a.buf[:idx])
			rest := make([]byte, len(a.buf)-idx-1)
			copy(rest, a.buf[idx+1:])
			a.buf = rest
			return trimCR(line), nil
		}

		chunk := make([]byte, readChunkSize)
		n, err := a.read(chunk)
		if n > 0 {
			a.buf = append(a.buf, chunk[:n]...)
			continue
		}
		if err != nil {
			if err == io.EOF && len(a.buf) > 0 {
				line := string(a.buf)
				a.buf = nil
				return trimCR(line), nil
			}
			return "", err
		}
	}
}

// trimCR removes a trailing '\r' left over when a peer uses CRLF framing;
// the core wire protocol only requires LF, but tolerating CRLF costs
// nothing.
func trimCR(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\r' {
		return s[:n-1]
	}
	return s
}
