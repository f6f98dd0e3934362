// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yateadmin exposes a small JWT-protected HTTP control surface
// over a running Engine: liveness, Prometheus metrics, a JSON status
// dump, and a reconnect trigger.
package yateadmin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yate-project/goyate/internal/yateengine"
	"github.com/yate-project/goyate/pkg/yatelog"
)

// EngineStatus is what GET /status reports.
type EngineStatus struct {
	HandlersInstalled int `json:"handlers_installed"`
	WatchersInstalled int `json:"watchers_installed"`
	CorrelatorPending int `json:"correlator_pending"`
}

// Server is the admin HTTP surface bound to one running Engine.
type Server struct {
	engine     *yateengine.Engine
	httpServer *http.Server
	ready      func() bool
	reconnect  func() error
}

// Config controls how the admin surface is wired and secured.
type Config struct {
	ListenAddr    string
	JWTSigningKey string
	// Ready reports whether the engine's workers are up; defaults to
	// always-true if nil.
	Ready func() bool
	// Reconnect is invoked by POST /control/reconnect; a nil value makes
	// that route report 501 Not Implemented.
	Reconnect func() error
}

// New builds a Server. It does not start listening until Run is called.
func New(engine *yateengine.Engine, cfg Config) *Server {
	ready := cfg.Ready
	if ready == nil {
		ready = func() bool { return true }
	}

	s := &Server{engine: engine, ready: ready, reconnect: cfg.Reconnect}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	secured := r.NewRoute().Subrouter()
	secured.Use(jwtMiddleware([]byte(cfg.JWTSigningKey)))
	secured.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	secured.HandleFunc("/control/reconnect", s.handleReconnect).Methods(http.MethodPost)

	r.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	logged := handlers.CustomLoggingHandler(io.Discard, r, func(_ io.Writer, params handlers.LogFormatterParams) {
		yatelog.Debugf("yateadmin: %s %s (%d, %dms)",
			params.Request.Method, params.URL.RequestURI(),
			params.StatusCode, time.Since(params.TimeStamp).Milliseconds())
	})

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      logged,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the Server's composed http.Handler, for tests that
// want to drive it with httptest without binding a real listener.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Run listens until ctx is canceled, then shuts the server down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealthz(rw http.ResponseWriter, r *http.Request) {
	if !s.ready() {
		http.Error(rw, "not ready", http.StatusServiceUnavailable)
		return
	}
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte("ok"))
}

func (s *Server) handleStatus(rw http.ResponseWriter, r *http.Request) {
	s.engine.SampleMetrics()
	status := EngineStatus{
		HandlersInstalled: s.engine.Handlers().HandlerCount(),
		WatchersInstalled: s.engine.Handlers().WatcherCount(),
		CorrelatorPending: s.engine.Correlator().Len(),
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(status)
}

func (s *Server) handleReconnect(rw http.ResponseWriter, r *http.Request) {
	if s.reconnect == nil {
		http.Error(rw, "reconnect not configured", http.StatusNotImplemented)
		return
	}
	if err := s.reconnect(); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	rw.WriteHeader(http.StatusOK)
}
