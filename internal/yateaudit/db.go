// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yateaudit records operational history - rmanager commands and
// handler registry transitions - into a SQLite database, entirely
// out-of-band from the engine's protocol loop: writes are best-effort and
// asynchronous, and a full buffer drops its oldest entry rather than ever
// blocking a caller.
package yateaudit

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	sqlite3drv "github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"
	"github.com/yate-project/goyate/pkg/yatelog"
)

//go:embed migrations/sqlite3/*
var migrationFiles embed.FS

// registerOnce guards the driver registration: database/sql panics when a
// driver name is registered twice, and Open may run more than once.
var registerOnce sync.Once

func connect(path string) (*sqlx.DB, error) {
	registerOnce.Do(func() {
		sql.Register("yateaudit_sqlite3", sqlhooks.Wrap(&sqlite3drv.SQLiteDriver{}, &queryHooks{}))
	})

	db, err := sqlx.Open("yateaudit_sqlite3", fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("yateaudit: open %s: %w", path, err)
	}
	// SQLite does not multithread; one connection avoids lock contention.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrateUp(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("yateaudit: migration driver: %w", err)
	}
	src, err := iofs.New(migrationFiles, "migrations/sqlite3")
	if err != nil {
		return fmt.Errorf("yateaudit: migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("yateaudit: migration setup: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("yateaudit: migration up: %w", err)
	}
	yatelog.Infof("yateaudit: schema migrated")
	return nil
}
