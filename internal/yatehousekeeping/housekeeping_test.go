// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatehousekeeping

import (
	"os"
	"testing"
	"time"

	"github.com/yate-project/goyate/internal/yatesnapshot"
)

type fakeSnapshotSource struct{}

func (fakeSnapshotSource) HandlersInstalled() int { return 0 }
func (fakeSnapshotSource) WatchersInstalled() int { return 0 }
func (fakeSnapshotSource) CorrelatorPending() int { return 0 }
func (fakeSnapshotSource) InputQueueDepth() int   { return 0 }
func (fakeSnapshotSource) OutputQueueDepth() int  { return 0 }

func TestSchedulerRunsSnapshotExportJob(t *testing.T) {
	dir := t.TempDir()
	target, err := yatesnapshot.NewFileTarget(dir)
	if err != nil {
		t.Fatalf("NewFileTarget: %v", err)
	}
	exporter, err := yatesnapshot.New(fakeSnapshotSource{}, target)
	if err != nil {
		t.Fatalf("yatesnapshot.New: %v", err)
	}

	sched, err := New(Config{SnapshotExport: 20 * time.Millisecond}, nil, exporter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sched.Shutdown()

	deadline := time.Now().Add(2 * time.Second)
	for {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir: %v", err)
		}
		if len(entries) > 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("snapshot export job never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerWithNoJobsStillShutsDownCleanly(t *testing.T) {
	sched, err := New(Config{}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sched.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
