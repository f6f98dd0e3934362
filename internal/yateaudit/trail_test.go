// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yateaudit

import (
	"path/filepath"
	"testing"
	"time"
)

func waitForRows(t *testing.T, f func() (int, error)) int {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := f()
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if n > 0 || time.Now().After(deadline) {
			return n
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRecordCommandAndList(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	trail, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer trail.Close()

	trail.RecordCommand("status cdrbuild", "ok", 5*time.Millisecond)

	n := waitForRows(t, func() (int, error) {
		rows, err := trail.ListCommands(CommandFilter{})
		return len(rows), err
	})
	if n != 1 {
		t.Fatalf("rows = %d, want 1", n)
	}

	rows, err := trail.ListCommands(CommandFilter{Command: "status cdrbuild"})
	if err != nil {
		t.Fatalf("ListCommands: %v", err)
	}
	if len(rows) != 1 || rows[0].Outcome != "ok" {
		t.Fatalf("rows = %#v", rows)
	}

	rows, err = trail.ListCommands(CommandFilter{Outcome: "syntax_error"})
	if err != nil {
		t.Fatalf("ListCommands: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows for mismatched outcome, got %#v", rows)
	}
}

func TestRecordHandlerEventAndList(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	trail, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer trail.Close()

	trail.RecordHandlerEvent("install", "call.route", true)

	n := waitForRows(t, func() (int, error) {
		rows, err := trail.ListHandlerEvents(HandlerEventFilter{})
		return len(rows), err
	})
	if n != 1 {
		t.Fatalf("rows = %d, want 1", n)
	}

	rows, err := trail.ListHandlerEvents(HandlerEventFilter{Kind: "install"})
	if err != nil {
		t.Fatalf("ListHandlerEvents: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "call.route" || !rows[0].Success {
		t.Fatalf("rows = %#v", rows)
	}
}

func TestQueueNeverBlocksWhenFull(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	trail, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer trail.Close()

	// Fill well past defaultQueueSize without letting the writer drain,
	// by enqueueing faster than the single background goroutine can
	// possibly write; the queue must never block this loop.
	for i := 0; i < defaultQueueSize*4; i++ {
		trail.RecordCommand("status engine", "ok", time.Millisecond)
	}

	n := waitForRows(t, func() (int, error) {
		rows, err := trail.ListCommands(CommandFilter{})
		return len(rows), err
	})
	if n == 0 {
		t.Fatal("expected at least some rows to have been written")
	}
}
