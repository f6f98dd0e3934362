// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yateengine

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/yate-project/goyate/internal/yatecmd"
)

// fakeTransport is a fully in-memory Transport for deterministic engine
// tests: pushLine feeds an inbound line, eof simulates the peer closing
// its write side, and next blocks for the next outbound line.
type fakeTransport struct {
	in  chan string
	out chan string

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:      make(chan string, 64),
		out:     make(chan string, 64),
		closeCh: make(chan struct{}),
	}
}

func (f *fakeTransport) ReadLine() (string, error) {
	select {
	case line, ok := <-f.in:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-f.closeCh:
		return "", io.EOF
	}
}

func (f *fakeTransport) Write(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return io.ErrClosedPipe
	}
	f.out <- line
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.closeCh)
	return nil
}

func (f *fakeTransport) pushLine(line string) { f.in <- line }
func (f *fakeTransport) eof()                 { close(f.in) }

func (f *fakeTransport) next(t *testing.T) string {
	t.Helper()
	select {
	case line := <-f.out:
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound line")
		return ""
	}
}

func intPtr(v int) *int { return &v }

func runEngine(t *testing.T, e *Engine) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		_ = e.Run(ctx)
		close(runDone)
	}()
	return func() {
		cancel()
		select {
		case <-runDone:
		case <-time.After(2 * time.Second):
			t.Fatal("engine did not shut down")
		}
	}
}

// Scenario 1: install a handler, receive a matching message, observe the
// default negative reply when the handler declines to reply itself.
func TestEngineInstallReceiveReply(t *testing.T) {
	ft := newFakeTransport()
	e := New(Config{Transport: ft})
	stop := runEngine(t, e)
	defer stop()

	if err := e.Install("test", func(msg *yatecmd.Message) *yatecmd.MessageReply {
		return nil
	}, intPtr(50), nil, nil); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if got := ft.next(t); got != "%%>install:50:test::" {
		t.Fatalf("install line = %q", got)
	}

	ft.pushLine("%%<install:50:test:true")

	ft.pushLine("%%>message:abc:1000:test::k=v")

	got := ft.next(t)
	want := "%%<message:abc:false:::"
	if got != want {
		t.Fatalf("reply line = %q, want %q", got, want)
	}
}

// Scenario 2: an outbound Message round-trips through a MessageReply and
// invokes its callback with processed=true.
func TestEngineOutboundMessageRoundTrip(t *testing.T) {
	ft := newFakeTransport()
	e := New(Config{Transport: ft})
	stop := runEngine(t, e)
	defer stop()

	replyCh := make(chan yatecmd.Command, 1)
	kvp := yatecmd.KVP{{Key: "testing", Value: "true"}, {Key: "done", Value: "75%"}, {Key: "path", Value: "/bin:/usr/bin"}}

	err := e.SendMessage("somerandomid", time.Unix(0, 0), "myapp.test", nil, kvp, func(reply yatecmd.Command) {
		replyCh <- reply
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	outbound := ft.next(t)
	if outbound == "" {
		t.Fatal("expected an outbound message line")
	}

	ft.pushLine("%%<message:somerandomid:true:myapp.test::")

	select {
	case reply := <-replyCh:
		mr, ok := reply.(*yatecmd.MessageReply)
		if !ok {
			t.Fatalf("reply type = %T", reply)
		}
		if !mr.Processed {
			t.Fatal("expected processed=true")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback was never invoked")
	}
}

// Scenario 3: an "Error in" line cancels the correlator entry for the
// offending outbound command; a later reply with the same key resolves
// nothing because the entry is already gone.
func TestEngineErrorPathCancelsCorrelation(t *testing.T) {
	ft := newFakeTransport()
	e := New(Config{Transport: ft})
	stop := runEngine(t, e)
	defer stop()

	if err := e.Install("badname", func(msg *yatecmd.Message) *yatecmd.MessageReply { return nil }, nil, nil, nil); err != nil {
		t.Fatalf("Install: %v", err)
	}

	ft.next(t) // the %%>install line itself

	if got := e.Correlator().Len(); got != 1 {
		t.Fatalf("correlator len = %d, want 1", got)
	}

	ft.pushLine("Error in:%%>install::badname")

	deadline := time.Now().Add(2 * time.Second)
	for e.Correlator().Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("correlator entry was never canceled")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A later reply for the same key resolves nothing further, and must
	// not panic or redeliver to anything.
	ft.pushLine("%%<install:100:badname:true")
	time.Sleep(50 * time.Millisecond)
	if got := e.Correlator().Len(); got != 0 {
		t.Fatalf("correlator len after stale reply = %d", got)
	}
}

// Scenario 4: commands emitted before Run land on the wire in the exact
// order they were called, ahead of any inbound processing.
func TestEngineOrderedStartup(t *testing.T) {
	ft := newFakeTransport()
	e := New(Config{Transport: ft})

	if err := e.Connect("global", nil, nil); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := e.Install("call.route", func(msg *yatecmd.Message) *yatecmd.MessageReply { return nil }, nil, nil, nil); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := e.SendMessage("startup-id", time.Unix(0, 0), "myapp.test", nil, nil, nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	stop := runEngine(t, e)
	defer stop()

	first := ft.next(t)
	second := ft.next(t)
	third := ft.next(t)

	if first != "%%>connect:global::" {
		t.Fatalf("first line = %q", first)
	}
	if second != "%%>install::call.route::" {
		t.Fatalf("second line = %q", second)
	}
	if third == "" {
		t.Fatal("expected a third outbound line for the queued message")
	}
}

// Scenario 5: the reader observing EOF drains the writer and lets Run
// return without the caller cancelling the context itself.
func TestEngineShutdownOnEOF(t *testing.T) {
	ft := newFakeTransport()
	e := New(Config{Transport: ft})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		_ = e.Run(ctx)
		close(runDone)
	}()

	ft.eof()

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not shut down after transport EOF")
	}
}
