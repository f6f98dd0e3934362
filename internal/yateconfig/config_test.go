// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yateconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport.Kind != "stdio" {
		t.Fatalf("transport.kind = %q, want stdio", cfg.Transport.Kind)
	}
	if cfg.Engine.Policy != "sequential" {
		t.Fatalf("engine.policy = %q, want sequential", cfg.Engine.Policy)
	}
}

func TestLoadOverlaysFileOntoDefaults(t *testing.T) {
	p := writeTempFile(t, "config.json", `{
		"transport": {"kind": "socket", "socket-host": "127.0.0.1", "socket-port": 5039},
		"engine": {"policy": "parallel"},
		"rmanager": {"enabled": true, "host": "127.0.0.1", "port": 5038}
	}`)

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport.Kind != "socket" || cfg.Transport.SocketPort != 5039 {
		t.Fatalf("transport = %#v", cfg.Transport)
	}
	if cfg.Engine.Policy != "parallel" {
		t.Fatalf("engine.policy = %q, want parallel", cfg.Engine.Policy)
	}
	if !cfg.RManager.Enabled || cfg.RManager.Port != 5038 {
		t.Fatalf("rmanager = %#v", cfg.RManager)
	}
	// Fields untouched by the file retain Default()'s values.
	if cfg.Metrics.ListenAddr != ":9090" {
		t.Fatalf("metrics.listen-addr = %q, want :9090", cfg.Metrics.ListenAddr)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	p := writeTempFile(t, "config.json", `{
		"transport": {"kind": "stdio"},
		"bogus-top-level-field": true
	}`)

	if _, err := Load(p); err == nil {
		t.Fatal("expected an error for an unknown top-level field")
	}
}

func TestLoadRejectsInvalidTransportKind(t *testing.T) {
	p := writeTempFile(t, "config.json", `{"transport": {"kind": "carrier-pigeon"}}`)

	if _, err := Load(p); err == nil {
		t.Fatal("expected a schema validation error for an invalid transport kind")
	}
}

func TestLoadEnvToleratesMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
}

func TestLoadEnvSetsVariables(t *testing.T) {
	p := writeTempFile(t, ".env", "YATE_TEST_VAR=hello\n")
	os.Unsetenv("YATE_TEST_VAR")

	if err := LoadEnv(p); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv("YATE_TEST_VAR"); got != "hello" {
		t.Fatalf("YATE_TEST_VAR = %q, want hello", got)
	}
	os.Unsetenv("YATE_TEST_VAR")
}
