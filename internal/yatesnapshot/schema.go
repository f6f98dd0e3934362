// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yatesnapshot periodically encodes a small engine-state record
// (handler/watcher counts, correlator depth, queue depths) as Avro and writes it to
// a local directory, optionally also archiving it to S3.
package yatesnapshot

const recordSchema = `{
	"type": "record",
	"name": "EngineSnapshot",
	"fields": [
		{"name": "timestamp", "type": "long"},
		{"name": "handlers_installed", "type": "int"},
		{"name": "watchers_installed", "type": "int"},
		{"name": "correlator_pending", "type": "int"},
		{"name": "input_queue_depth", "type": "int"},
		{"name": "output_queue_depth", "type": "int"}
	]
}`
