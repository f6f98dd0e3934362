// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatetransport

import (
	"io"
	"sync"
)

// Stdio is the Transport used when the module is launched as a direct
// child process of the engine, communicating over its inherited stdin and
// stdout.
type Stdio struct {
	in  io.Reader
	out io.Writer

	mu     sync.Mutex
	closed bool
	acc    *lineAccumulator
}

// NewStdio wraps in/out as a Transport. Pass os.Stdin and os.Stdout in
// production; tests pass io.Pipe ends.
func NewStdio(in io.Reader, out io.Writer) *Stdio {
	s := &Stdio{in: in, out: out}
	s.acc = newLineAccumulator(func(p []byte) (int, error) { return in.Read(p) })
	return s
}

func (s *Stdio) ReadLine() (string, error) {
	return s.acc.readLine()
}

func (s *Stdio) Write(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	_, err := io.WriteString(s.out, line+"\n")
	return err
}

func (s *Stdio) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if closer, ok := s.in.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
