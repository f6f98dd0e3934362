// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yateconfig loads and validates the module's JSON configuration
// file. LoadEnv separately loads an optional .env file into the process
// environment; Load itself reads no environment variables, so every
// Config field comes from the config file or from Default().
package yateconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Transport selects which yatetransport.Transport implementation the
// engine dials on startup.
type Transport struct {
	Kind             string `json:"kind"`
	SocketHost       string `json:"socket-host,omitempty"`
	SocketPort       int    `json:"socket-port,omitempty"`
	NATSURL          string `json:"nats-url,omitempty"`
	NATSSubject      string `json:"nats-subject,omitempty"`
	NATSReplySubject string `json:"nats-reply-subject,omitempty"`
}

// Engine controls handler dispatch policy and queue sizing.
type Engine struct {
	Policy    string `json:"policy"`
	QueueSize int    `json:"queue-size,omitempty"`
}

// RManager controls the optional remote-management client.
type RManager struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Password string `json:"password,omitempty"`
}

// Metrics controls the Prometheus exposition endpoint.
type Metrics struct {
	Enabled    bool   `json:"enabled"`
	ListenAddr string `json:"listen-addr,omitempty"`
}

// Audit controls the SQLite audit trail.
type Audit struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"db-path,omitempty"`
}

// Admin controls the JWT-protected HTTP control surface.
type Admin struct {
	Enabled       bool   `json:"enabled"`
	ListenAddr    string `json:"listen-addr,omitempty"`
	JWTSigningKey string `json:"jwt-signing-key,omitempty"`
}

// Snapshot controls periodic Avro snapshot export and its optional S3
// archival target.
type Snapshot struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval,omitempty"`
	Dir      string `json:"dir,omitempty"`
	S3Bucket string `json:"s3-bucket,omitempty"`
	S3Region string `json:"s3-region,omitempty"`
}

// Housekeeping controls the gocron-scheduled background jobs.
type Housekeeping struct {
	UptimePollInterval string `json:"uptime-poll-interval,omitempty"`
	StatusPollInterval string `json:"status-poll-interval,omitempty"`
}

// Config is the full, validated program configuration.
type Config struct {
	Transport    Transport    `json:"transport"`
	Engine       Engine       `json:"engine"`
	RManager     RManager     `json:"rmanager"`
	LogLevel     string       `json:"log-level,omitempty"`
	Metrics      Metrics      `json:"metrics"`
	Audit        Audit        `json:"audit"`
	Admin        Admin        `json:"admin"`
	Snapshot     Snapshot     `json:"snapshot"`
	Housekeeping Housekeeping `json:"housekeeping"`
}

// Default returns the built-in configuration: stdio transport,
// sequential dispatch, everything else disabled. Callers start from
// this and overlay a config file on top of it.
func Default() Config {
	return Config{
		Transport: Transport{Kind: "stdio"},
		Engine:    Engine{Policy: "sequential", QueueSize: 64},
		LogLevel:  "info",
		Metrics:   Metrics{ListenAddr: ":9090"},
		Audit:     Audit{DBPath: "./var/yate-audit.db"},
		Admin:     Admin{ListenAddr: ":8181"},
		Snapshot:  Snapshot{Interval: "5m", Dir: "./var/snapshots"},
		Housekeeping: Housekeeping{
			UptimePollInterval: "30s",
			StatusPollInterval: "1m",
		},
	}
}

// LoadEnv loads envFile's KEY=VALUE pairs into the process environment
// using godotenv, tolerating a missing file (it is optional, not
// required). Existing environment variables are never overwritten.
func LoadEnv(envFile string) error {
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(envFile)
}

// Load reads flagConfigFile, validates it against the embedded JSON
// schema, and decodes it on top of Default(). A missing config file is
// not an error: Default() is returned as-is.
func Load(flagConfigFile string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("yateconfig: read %s: %w", flagConfigFile, err)
	}

	if err := validate(raw); err != nil {
		return cfg, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("yateconfig: decode %s: %w", flagConfigFile, err)
	}

	if cfg.Transport.Kind == "" {
		return cfg, fmt.Errorf("yateconfig: transport.kind is required")
	}

	return cfg, nil
}
