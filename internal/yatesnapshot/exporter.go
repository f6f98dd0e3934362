// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatesnapshot

import (
	"bytes"
	"fmt"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/yate-project/goyate/pkg/yatelog"
)

// Snapshot is one sample of engine state, ready to encode.
type Snapshot struct {
	Timestamp         int64
	HandlersInstalled int
	WatchersInstalled int
	CorrelatorPending int
	InputQueueDepth   int
	OutputQueueDepth  int
}

// Source supplies the values an Exporter samples into a Snapshot. The
// Engine satisfies this through the adapter returned by its
// SnapshotSource method, keeping this package free of an import on
// yateengine.
type Source interface {
	HandlersInstalled() int
	WatchersInstalled() int
	CorrelatorPending() int
	InputQueueDepth() int
	OutputQueueDepth() int
}

// Exporter periodically encodes a Snapshot as Avro and writes it to one
// or more Targets.
type Exporter struct {
	source  Source
	codec   *goavro.Codec
	targets []Target
}

// New builds an Exporter sampling source and writing to targets (at
// least one; typically a FileTarget and, if configured, an S3Target).
func New(source Source, targets ...Target) (*Exporter, error) {
	codec, err := goavro.NewCodec(recordSchema)
	if err != nil {
		return nil, fmt.Errorf("yatesnapshot: compile schema: %w", err)
	}
	return &Exporter{source: source, codec: codec, targets: targets}, nil
}

// Export samples source now, encodes it as a single-record Avro
// Object Container File, and writes it under every configured target
// with a timestamp-derived file name.
func (e *Exporter) Export() error {
	snap := Snapshot{
		Timestamp:         time.Now().Unix(),
		HandlersInstalled: e.source.HandlersInstalled(),
		WatchersInstalled: e.source.WatchersInstalled(),
		CorrelatorPending: e.source.CorrelatorPending(),
		InputQueueDepth:   e.source.InputQueueDepth(),
		OutputQueueDepth:  e.source.OutputQueueDepth(),
	}

	data, err := e.encode(snap)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("snapshot-%d.avro", snap.Timestamp)
	for _, target := range e.targets {
		if err := target.WriteFile(name, data); err != nil {
			yatelog.Warnf("yatesnapshot: write to target failed: %v", err)
		}
	}
	return nil
}

func (e *Exporter) encode(snap Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               &buf,
		Codec:           e.codec,
		CompressionName: goavro.CompressionDeflateLabel,
	})
	if err != nil {
		return nil, fmt.Errorf("yatesnapshot: create OCF writer: %w", err)
	}

	record := map[string]interface{}{
		"timestamp":          snap.Timestamp,
		"handlers_installed": int32(snap.HandlersInstalled),
		"watchers_installed": int32(snap.WatchersInstalled),
		"correlator_pending": int32(snap.CorrelatorPending),
		"input_queue_depth":  int32(snap.InputQueueDepth),
		"output_queue_depth": int32(snap.OutputQueueDepth),
	}

	if err := writer.Append([]interface{}{record}); err != nil {
		return nil, fmt.Errorf("yatesnapshot: append record: %w", err)
	}
	return buf.Bytes(), nil
}
