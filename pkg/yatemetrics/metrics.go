// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yatemetrics exposes the engine's runtime counters and gauges as
// Prometheus metrics, registered once on package init and served over
// /metrics by internal/yateadmin.
package yatemetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesDispatched counts every Dispatcher routing decision for an
	// inbound %%>message, keyed by how the message was ultimately handled.
	// Replies and "Error in" lines are not counted.
	MessagesDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yate_messages_dispatched_total",
		Help: "Total number of inbound messages routed by the engine dispatcher, by outcome kind.",
	}, []string{"kind"})

	// CorrelatorPending is sampled from the Correlator's outstanding
	// entry count.
	CorrelatorPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yate_correlator_pending",
		Help: "Number of outstanding correlator entries awaiting a reply.",
	})

	// HandlersInstalled and WatchersInstalled are sampled from the
	// handler registry.
	HandlersInstalled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yate_handlers_installed",
		Help: "Number of message handlers currently installed.",
	})
	WatchersInstalled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yate_watchers_installed",
		Help: "Number of message watchers currently installed.",
	})

	// OutputQueueDepth and InputQueueDepth are sampled from the engine's
	// buffered line channels.
	OutputQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yate_output_queue_depth",
		Help: "Number of rendered lines currently buffered for the transport writer.",
	})
	InputQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yate_input_queue_depth",
		Help: "Number of raw inbound lines currently buffered for the dispatcher.",
	})

	// RManagerCommands counts every rmanager.SendCmd call, keyed by the
	// command word and its outcome.
	RManagerCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yate_rmanager_commands_total",
		Help: "Total number of rmanager commands sent, by command and outcome.",
	}, []string{"command", "outcome"})
)

// Outcome kinds recorded against MessagesDispatched, matching the branches
// of the engine dispatcher's routing decision.
const (
	OutcomeHandler         = "handler"
	OutcomeCorrelator      = "correlator"
	OutcomeWatcher         = "watcher"
	OutcomeCriticalDropped = "critical_dropped"
)
