// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yateaudit

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

type commandRow struct {
	Command    string `db:"command"`
	Outcome    string `db:"outcome"`
	DurationMs int64  `db:"duration_ms"`
	Timestamp  int64  `db:"timestamp"`
}

type handlerRow struct {
	Kind      string `db:"kind"`
	Name      string `db:"name"`
	Success   bool   `db:"success"`
	Timestamp int64  `db:"timestamp"`
}

// CommandFilter narrows ListCommands; zero values are "no filter".
type CommandFilter struct {
	Command string
	Outcome string
	Since   time.Time
	Limit   uint64
}

// ListCommands returns rmanager_command rows matching filter, newest
// first.
func (t *Trail) ListCommands(filter CommandFilter) ([]CommandEvent, error) {
	query := sq.Select("command", "outcome", "duration_ms", "timestamp").
		From("rmanager_command").
		OrderBy("timestamp DESC")

	if filter.Command != "" {
		query = query.Where(sq.Eq{"command": filter.Command})
	}
	if filter.Outcome != "" {
		query = query.Where(sq.Eq{"outcome": filter.Outcome})
	}
	if !filter.Since.IsZero() {
		query = query.Where(sq.GtOrEq{"timestamp": filter.Since.Unix()})
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []commandRow
	if err := t.db.Select(&rows, sqlStr, args...); err != nil {
		return nil, err
	}

	out := make([]CommandEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, CommandEvent{
			Command:    r.Command,
			Outcome:    r.Outcome,
			DurationMs: r.DurationMs,
			Timestamp:  time.Unix(r.Timestamp, 0),
		})
	}
	return out, nil
}

// HandlerEventFilter narrows ListHandlerEvents; zero values are "no
// filter".
type HandlerEventFilter struct {
	Kind  string
	Name  string
	Limit uint64
}

// ListHandlerEvents returns handler_event rows matching filter, newest
// first.
func (t *Trail) ListHandlerEvents(filter HandlerEventFilter) ([]HandlerEventRecord, error) {
	query := sq.Select("kind", "name", "success", "timestamp").
		From("handler_event").
		OrderBy("timestamp DESC")

	if filter.Kind != "" {
		query = query.Where(sq.Eq{"kind": filter.Kind})
	}
	if filter.Name != "" {
		query = query.Where(sq.Eq{"name": filter.Name})
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []handlerRow
	if err := t.db.Select(&rows, sqlStr, args...); err != nil {
		return nil, err
	}

	out := make([]HandlerEventRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, HandlerEventRecord{
			Kind:      r.Kind,
			Name:      r.Name,
			Success:   r.Success,
			Timestamp: time.Unix(r.Timestamp, 0),
		})
	}
	return out, nil
}

// HandlerEventRecord is a read-side HandlerEvent with its timestamp
// decoded back into a time.Time.
type HandlerEventRecord struct {
	Kind      string
	Name      string
	Success   bool
	Timestamp time.Time
}
