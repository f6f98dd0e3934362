// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yateaudit

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/yate-project/goyate/pkg/yatelog"
)

// CommandEvent is one row of the rmanager_command table.
type CommandEvent struct {
	Command    string    `db:"command"`
	Outcome    string    `db:"outcome"`
	DurationMs int64     `db:"duration_ms"`
	Timestamp  time.Time `db:"-"`
	timestamp  int64     `db:"timestamp"`
}

// HandlerEvent is one row of the handler_event table. Kind is one of
// "install", "uninstall", "watch", "unwatch".
type HandlerEvent struct {
	Kind      string `db:"kind"`
	Name      string `db:"name"`
	Success   bool   `db:"success"`
	timestamp int64  `db:"timestamp"`
}

type record interface {
	insertSQL() (string, []interface{})
}

func (e CommandEvent) insertSQL() (string, []interface{}) {
	return "INSERT INTO rmanager_command (command, outcome, duration_ms, timestamp) VALUES (?, ?, ?, ?)",
		[]interface{}{e.Command, e.Outcome, e.DurationMs, e.timestamp}
}

func (e HandlerEvent) insertSQL() (string, []interface{}) {
	return "INSERT INTO handler_event (kind, name, success, timestamp) VALUES (?, ?, ?, ?)",
		[]interface{}{e.Kind, e.Name, e.Success, e.timestamp}
}

const defaultQueueSize = 256

// Trail is an asynchronous, best-effort writer of operational history.
// Record calls never block on the database: a full queue drops its
// oldest pending entry to make room for the new one, since audit history
// is additive observability, never something the engine loop waits on.
type Trail struct {
	db     *sqlx.DB
	events chan record
	done   chan struct{}
}

// Open opens (creating and migrating if necessary) the SQLite database at
// path and starts the Trail's background writer.
func Open(path string) (*Trail, error) {
	db, err := connect(path)
	if err != nil {
		return nil, err
	}

	t := &Trail{
		db:     db,
		events: make(chan record, defaultQueueSize),
		done:   make(chan struct{}),
	}
	go t.run()
	return t, nil
}

func (t *Trail) run() {
	for {
		select {
		case ev := <-t.events:
			query, args := ev.insertSQL()
			if _, err := t.db.Exec(query, args...); err != nil {
				yatelog.Warnf("yateaudit: insert failed: %v", err)
			}
		case <-t.done:
			return
		}
	}
}

// enqueue drops the oldest queued event before sending ev if the queue is
// currently full, so Record* calls from the engine's hot path never
// block.
func (t *Trail) enqueue(ev record) {
	select {
	case t.events <- ev:
		return
	default:
	}
	select {
	case <-t.events:
	default:
	}
	select {
	case t.events <- ev:
	default:
		yatelog.Warnf("yateaudit: dropped event, queue still full after eviction")
	}
}

// RecordCommand audits one rmanager.SendCmd invocation.
func (t *Trail) RecordCommand(command, outcome string, duration time.Duration) {
	t.enqueue(CommandEvent{
		Command:    command,
		Outcome:    outcome,
		DurationMs: duration.Milliseconds(),
		timestamp:  time.Now().Unix(),
	})
}

// RecordHandlerEvent audits an install/uninstall/watch/unwatch transition.
func (t *Trail) RecordHandlerEvent(kind, name string, success bool) {
	t.enqueue(HandlerEvent{
		Kind:      kind,
		Name:      name,
		Success:   success,
		timestamp: time.Now().Unix(),
	})
}

// Close stops the background writer and closes the database. Any events
// still queued are discarded.
func (t *Trail) Close() error {
	close(t.done)
	return t.db.Close()
}
