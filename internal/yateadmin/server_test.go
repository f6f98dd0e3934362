// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yateadmin

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yate-project/goyate/internal/yateengine"
	"github.com/yate-project/goyate/internal/yatetransport"
)

func testEngine(t *testing.T) *yateengine.Engine {
	t.Helper()
	return yateengine.New(yateengine.Config{
		Transport: yatetransport.NewStdio(strings.NewReader(""), io.Discard),
	})
}

func TestHealthzOK(t *testing.T) {
	e := testEngine(t)
	s := New(e, Config{JWTSigningKey: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestStatusRequiresBearerToken(t *testing.T) {
	e := testEngine(t)
	s := New(e, Config{JWTSigningKey: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestStatusWithValidToken(t *testing.T) {
	e := testEngine(t)
	s := New(e, Config{JWTSigningKey: "secret"})

	token, err := IssueToken([]byte("secret"), "test", 60)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var status EngineStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestReconnectUnconfiguredReturns501(t *testing.T) {
	e := testEngine(t)
	s := New(e, Config{JWTSigningKey: "secret"})
	token, _ := IssueToken([]byte("secret"), "test", 60)

	req := httptest.NewRequest(http.MethodPost, "/control/reconnect", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
}

func TestMetricsExposed(t *testing.T) {
	e := testEngine(t)
	s := New(e, Config{JWTSigningKey: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
