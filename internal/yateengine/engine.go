// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yateengine drives the external-module protocol loop: a reader
// goroutine turns transport bytes into lines, a dispatcher goroutine turns
// lines into routed Commands, and a writer goroutine serializes outbound
// Commands back onto the transport. User code interacts with the running
// Engine through Install/Watch/Message/etc. and through the handler and
// watcher registries it owns.
package yateengine

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/yate-project/goyate/internal/yatecmd"
	"github.com/yate-project/goyate/internal/yatecorr"
	"github.com/yate-project/goyate/internal/yateframe"
	"github.com/yate-project/goyate/internal/yatehandler"
	"github.com/yate-project/goyate/internal/yatetransport"
	"github.com/yate-project/goyate/pkg/yatelog"
	"github.com/yate-project/goyate/pkg/yatemetrics"
)

// Policy selects how the dispatcher runs message handlers.
type Policy int

const (
	// Sequential invokes each handler inline on the dispatcher goroutine;
	// dispatch of the next inbound line waits for the current handler to
	// return.
	Sequential Policy = iota
	// Parallel spawns a goroutine per handler invocation. Handlers for
	// different messages may then execute concurrently and may complete
	// out of order; a single correlation key can still never have two
	// outstanding commands, since Correlator.Submit rejects duplicates.
	Parallel
)

const defaultQueueSize = 64

// Config configures a new Engine. Transport is required; the remaining
// fields have workable zero values.
type Config struct {
	Transport yatetransport.Transport
	Policy    Policy
	// QueueSize bounds the input/output channel capacity. Zero selects a
	// default of 64.
	QueueSize int
}

// Engine owns the reader/dispatcher/writer workers, the handler/watcher
// registry, and the correlator for one transport connection.
type Engine struct {
	transport yatetransport.Transport
	handlers  *yatehandler.Registry
	corr      *yatecorr.Correlator
	policy    Policy

	inputQ  chan string
	outputQ chan string

	mu           sync.Mutex
	started      bool
	startupLines []string

	stopOnce  sync.Once
	done      chan struct{}
	workerWG  sync.WaitGroup
	stopHooks []func()
	hooksMu   sync.Mutex

	// AuditHook, if set, is called once a handler/watcher install or
	// removal is confirmed by its matching reply, with kind one of
	// "install", "uninstall", "watch", "unwatch". Left nil, auditing is
	// simply skipped.
	AuditHook func(kind, name string, success bool)
}

// New constructs an Engine around cfg. The returned Engine is not running
// until Run is called; commands sent via Install/Message/etc. before Run
// queue in startup order and are flushed to the wire before any inbound
// line is processed.
func New(cfg Config) *Engine {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Engine{
		transport: cfg.Transport,
		handlers:  yatehandler.New(),
		corr:      yatecorr.New(),
		policy:    cfg.Policy,
		inputQ:    make(chan string, queueSize),
		outputQ:   make(chan string, queueSize),
		done:      make(chan struct{}),
	}
}

// Handlers returns the Engine's handler/watcher registry, for direct
// inspection; prefer Install/Watch/UnInstall/UnWatch to mutate it so the
// matching wire command is also sent.
func (e *Engine) Handlers() *yatehandler.Registry { return e.handlers }

// Correlator returns the Engine's outstanding-command correlator.
func (e *Engine) Correlator() *yatecorr.Correlator { return e.corr }

// InputQueueDepth returns the number of raw inbound lines currently
// buffered for the dispatcher.
func (e *Engine) InputQueueDepth() int { return len(e.inputQ) }

// OutputQueueDepth returns the number of rendered lines currently
// buffered for the transport writer.
func (e *Engine) OutputQueueDepth() int { return len(e.outputQ) }

// SnapshotSource adapts this Engine to yatesnapshot.Source.
func (e *Engine) SnapshotSource() snapshotSource { return snapshotSource{e} }

// snapshotSource satisfies yatesnapshot.Source without importing that
// package from engine.go's import block, so neither package imports the
// other.
type snapshotSource struct{ e *Engine }

func (s snapshotSource) HandlersInstalled() int { return s.e.handlers.HandlerCount() }
func (s snapshotSource) WatchersInstalled() int { return s.e.handlers.WatcherCount() }
func (s snapshotSource) CorrelatorPending() int { return s.e.corr.Len() }
func (s snapshotSource) InputQueueDepth() int   { return len(s.e.inputQ) }
func (s snapshotSource) OutputQueueDepth() int  { return len(s.e.outputQ) }

// SampleMetrics pushes a fresh reading of every gauge this Engine owns
// into pkg/yatemetrics. Nothing calls it on a schedule: the admin GET
// /status handler calls it per request, so the gauges hold the values of
// the most recent call.
func (e *Engine) SampleMetrics() {
	yatemetrics.CorrelatorPending.Set(float64(e.corr.Len()))
	yatemetrics.HandlersInstalled.Set(float64(e.handlers.HandlerCount()))
	yatemetrics.WatchersInstalled.Set(float64(e.handlers.WatcherCount()))
	yatemetrics.InputQueueDepth.Set(float64(len(e.inputQ)))
	yatemetrics.OutputQueueDepth.Set(float64(len(e.outputQ)))
}

// OnStop registers fn to run once, after all workers have joined during
// shutdown. Shutdown itself is not cancelable; fn exists for cleanup, not
// to veto the stop.
func (e *Engine) OnStop(fn func()) {
	e.hooksMu.Lock()
	defer e.hooksMu.Unlock()
	e.stopHooks = append(e.stopHooks, fn)
}

// Run starts the writer, drains any commands queued before Run was called
// onto the output queue, then starts the reader and dispatcher, and
// blocks until ctx is
// canceled, SIGINT/SIGTERM is received, or a worker hits a fatal
// transport error or EOF. It always closes the transport and waits for
// every worker (including in-flight Parallel handler goroutines) to
// return before returning itself.
func (e *Engine) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	e.workerWG.Add(3)
	go e.runWriter()
	e.flushStartupQueue()
	go e.runReader()
	go e.runDispatcher()

	select {
	case <-ctx.Done():
	case <-sigCh:
	case <-e.done:
	}

	e.shutdown()
	e.workerWG.Wait()

	e.hooksMu.Lock()
	hooks := e.stopHooks
	e.hooksMu.Unlock()
	for _, fn := range hooks {
		fn()
	}

	return nil
}

// Stop triggers the same shutdown sequence as a signal or transport EOF.
// It is safe to call more than once and from any goroutine.
func (e *Engine) Stop() {
	e.shutdown()
}

func (e *Engine) shutdown() {
	e.stopOnce.Do(func() {
		close(e.done)
		if err := e.transport.Close(); err != nil {
			yatelog.Warnf("yateengine: transport close: %v", err)
		}
	})
}

func (e *Engine) flushStartupQueue() {
	e.mu.Lock()
	lines := e.startupLines
	e.startupLines = nil
	e.started = true
	e.mu.Unlock()

	for _, line := range lines {
		select {
		case e.outputQ <- line:
		case <-e.done:
			return
		}
	}
}

func (e *Engine) runReader() {
	defer e.workerWG.Done()
	for {
		line, err := e.transport.ReadLine()
		if err != nil {
			e.shutdown()
			return
		}
		select {
		case e.inputQ <- line:
		case <-e.done:
			return
		}
	}
}

func (e *Engine) runDispatcher() {
	defer e.workerWG.Done()
	for {
		select {
		case line := <-e.inputQ:
			e.dispatchLine(line)
		case <-e.done:
			// Drain whatever already arrived before the reader stopped.
			for {
				select {
				case line := <-e.inputQ:
					e.dispatchLine(line)
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) runWriter() {
	defer e.workerWG.Done()
	for {
		select {
		case line := <-e.outputQ:
			if err := e.transport.Write(line); err != nil {
				yatelog.Errorf("yateengine: write: %v", err)
				e.shutdown()
			}
		case <-e.done:
			for {
				select {
				case line := <-e.outputQ:
					if err := e.transport.Write(line); err != nil {
						yatelog.Errorf("yateengine: write: %v", err)
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) dispatchLine(line string) {
	cmd, err := yateframe.Parse(line)
	if err != nil {
		yatelog.Errorf("yateengine: discarding malformed line %q: %v", line, err)
		return
	}
	e.route(cmd)
}

// invoke runs fn inline under Sequential policy, or in its own tracked
// goroutine under Parallel policy.
func (e *Engine) invoke(fn func()) {
	if e.policy != Parallel {
		fn()
		return
	}
	e.workerWG.Add(1)
	go func() {
		defer e.workerWG.Done()
		fn()
	}()
}

// enqueue renders cmd and places it on the startup queue (before Run) or
// the output queue (after). It reports whether cmd was actually queued;
// false means shutdown had already begun and the line was dropped.
func (e *Engine) enqueue(cmd yatecmd.Command) bool {
	e.mu.Lock()
	started := e.started
	if !started {
		e.startupLines = append(e.startupLines, yateframe.Render(cmd))
		e.mu.Unlock()
		return true
	}
	e.mu.Unlock()

	select {
	case e.outputQ <- yateframe.Render(cmd):
		return true
	case <-e.done:
		return false
	}
}

// errEngineStopping is returned by API calls made after shutdown has
// begun, where the attempted wire command is no longer deliverable.
var errEngineStopping = fmt.Errorf("yateengine: engine is stopping")
