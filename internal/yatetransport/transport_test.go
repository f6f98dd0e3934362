// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatetransport

import (
	"io"
	"net"
	"os"
	"testing"
	"time"
)

func TestStdioReadLine(t *testing.T) {
	pr, pw := io.Pipe()
	s := NewStdio(pr, io.Discard)

	go func() {
		_, _ = pw.Write([]byte("%setlocal:id:true\n"))
	}()

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "%setlocal:id:true" {
		t.Fatalf("got %q", line)
	}
}

func TestStdioReadLineSplitAcrossChunks(t *testing.T) {
	pr, pw := io.Pipe()
	s := NewStdio(pr, io.Discard)

	go func() {
		_, _ = pw.Write([]byte("%install:"))
		time.Sleep(10 * time.Millisecond)
		_, _ = pw.Write([]byte("100:call.route\n"))
	}()

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "%install:100:call.route" {
		t.Fatalf("got %q", line)
	}
}

func TestStdioReadLineCRLFTolerant(t *testing.T) {
	pr, pw := io.Pipe()
	s := NewStdio(pr, io.Discard)

	go func() {
		_, _ = pw.Write([]byte("%watch:call.ringing\r\n"))
	}()

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "%watch:call.ringing" {
		t.Fatalf("got %q", line)
	}
}

func TestStdioReadLineEOFWithTrailingData(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	s := NewStdio(r, io.Discard)

	if _, err := w.Write([]byte("trailing-no-newline")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "trailing-no-newline" {
		t.Fatalf("got %q", line)
	}

	if _, err := s.ReadLine(); err != io.EOF {
		t.Fatalf("expected io.EOF on second read, got %v", err)
	}
}

func TestStdioWriteAfterClose(t *testing.T) {
	pr, _ := io.Pipe()
	s := NewStdio(pr, io.Discard)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Write("%output:hello"); err != io.ErrClosedPipe {
		t.Fatalf("expected ErrClosedPipe, got %v", err)
	}
}

func TestSocketOverPipe(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })

	cs := newSocket(client)

	go func() {
		_, _ = server.Write([]byte("%error:badly formatted command\n"))
	}()

	line, err := cs.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "%error:badly formatted command" {
		t.Fatalf("got %q", line)
	}

	done := make(chan string, 1)
	go func() {
		buf := make([]byte, 256)
		n, _ := server.Read(buf)
		done <- string(buf[:n])
	}()
	if err := cs.Write("%%>message:1:0:call.execute::"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	select {
	case got := <-done:
		if got != "%%>message:1:0:call.execute::\n" {
			t.Fatalf("server got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for server read")
	}
}

func TestDialSocketRejectsEmptyHost(t *testing.T) {
	if _, err := DialSocket("", 0); err == nil {
		t.Fatal("expected error for empty host")
	}
}

func TestDialSocketRejectsMissingPort(t *testing.T) {
	if _, err := DialSocket("localhost", 0); err == nil {
		t.Fatal("expected error for missing port")
	}
}

func TestLineAccumulatorMultipleLinesInOneChunk(t *testing.T) {
	data := []byte("one\ntwo\nthree")
	pos := 0
	acc := newLineAccumulator(func(p []byte) (int, error) {
		if pos >= len(data) {
			return 0, io.EOF
		}
		n := copy(p, data[pos:])
		pos += n
		return n, nil
	})

	for _, want := range []string{"one", "two"} {
		got, err := acc.readLine()
		if err != nil {
			t.Fatalf("readLine: %v", err)
		}
		if got != want {
			t.Fatalf("got %q want %q", got, want)
		}
	}
	got, err := acc.readLine()
	if err != nil {
		t.Fatalf("readLine: %v", err)
	}
	if got != "three" {
		t.Fatalf("got %q want three", got)
	}
	if _, err := acc.readLine(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
