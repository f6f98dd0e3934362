// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatesnapshot

import (
	"os"
	"path/filepath"
	"testing"
)

type fakeSource struct {
	handlers, watchers, pending, inQ, outQ int
}

func (f fakeSource) HandlersInstalled() int { return f.handlers }
func (f fakeSource) WatchersInstalled() int { return f.watchers }
func (f fakeSource) CorrelatorPending() int { return f.pending }
func (f fakeSource) InputQueueDepth() int   { return f.inQ }
func (f fakeSource) OutputQueueDepth() int  { return f.outQ }

func TestExportWritesFileTarget(t *testing.T) {
	dir := t.TempDir()
	target, err := NewFileTarget(dir)
	if err != nil {
		t.Fatalf("NewFileTarget: %v", err)
	}

	exp, err := New(fakeSource{handlers: 2, watchers: 1, pending: 3}, target)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := exp.Export(); err != nil {
		t.Fatalf("Export: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".avro" {
		t.Fatalf("unexpected file name %q", entries[0].Name())
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty encoded snapshot")
	}
}

func TestExportWritesEveryTarget(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	targetA, _ := NewFileTarget(dirA)
	targetB, _ := NewFileTarget(dirB)

	exp, err := New(fakeSource{}, targetA, targetB)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := exp.Export(); err != nil {
		t.Fatalf("Export: %v", err)
	}

	for _, dir := range []string{dirA, dirB} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir(%s): %v", dir, err)
		}
		if len(entries) != 1 {
			t.Fatalf("%s: entries = %d, want 1", dir, len(entries))
		}
	}
}
