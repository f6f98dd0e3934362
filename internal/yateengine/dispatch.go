// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yateengine

import (
	"github.com/yate-project/goyate/internal/yatecmd"
	"github.com/yate-project/goyate/pkg/yatelog"
	"github.com/yate-project/goyate/pkg/yatemetrics"
)

// route dispatches one parsed inbound Command to its handler, watcher, or
// correlator entry.
func (e *Engine) route(cmd yatecmd.Command) {
	switch c := cmd.(type) {
	case *yatecmd.Message:
		e.routeMessage(c)
	case *yatecmd.MessageReply:
		e.routeMessageReply(c)
	case *yatecmd.InstallReply, *yatecmd.UnInstallReply, *yatecmd.SetLocalReply,
		*yatecmd.WatchReply, *yatecmd.UnWatchReply:
		e.routeSimpleReply(cmd)
	case *yatecmd.Error:
		e.routeError(c)
	default:
		yatelog.Warnf("yateengine: no route for inbound %s", cmd.Keyword())
	}
}

// routeMessage implements §4.6's Message dispatch: a known handler wins,
// then an outstanding correlator entry for this id (a delayed-reply
// engine behavior), then a watcher, then a critical log for an orphaned
// message.
func (e *Engine) routeMessage(msg *yatecmd.Message) {
	if fn, ok := e.handlers.Handler(msg.Name); ok {
		yatemetrics.MessagesDispatched.WithLabelValues(yatemetrics.OutcomeHandler).Inc()
		e.invoke(func() { e.runHandler(msg, fn) })
		return
	}

	if cb, ok := e.corr.ResolveByID(msg.ID); ok {
		yatemetrics.MessagesDispatched.WithLabelValues(yatemetrics.OutcomeCorrelator).Inc()
		if cb != nil {
			e.invoke(func() { cb(msg) })
		}
		return
	}

	if fn, ok := e.handlers.Watcher(msg.Name); ok {
		yatemetrics.MessagesDispatched.WithLabelValues(yatemetrics.OutcomeWatcher).Inc()
		e.invoke(func() { fn(msg) })
		return
	}

	yatemetrics.MessagesDispatched.WithLabelValues(yatemetrics.OutcomeCriticalDropped).Inc()
	yatelog.Critf("yateengine: message %q (id=%s) has no handler, correlator entry, or watcher", msg.Name, msg.ID)
}

// runHandler invokes fn, recovering from a panic so a single broken
// handler never takes down the dispatch loop, and always sends a reply:
// fn's own reply if it returned one, otherwise the default negative
// reply.
func (e *Engine) runHandler(msg *yatecmd.Message, fn func(msg *yatecmd.Message) *yatecmd.MessageReply) {
	reply := e.safeInvokeHandler(msg, fn)
	if reply == nil {
		reply = msg.Reply(false, nil, nil, nil)
	}
	e.enqueue(reply)
}

func (e *Engine) safeInvokeHandler(msg *yatecmd.Message, fn func(msg *yatecmd.Message) *yatecmd.MessageReply) (reply *yatecmd.MessageReply) {
	defer func() {
		if r := recover(); r != nil {
			yatelog.Errorf("yateengine: handler for %q panicked: %v", msg.Name, r)
			reply = nil
		}
	}()
	return fn(msg)
}

// routeMessageReply resolves the correlator entry for an outbound
// Message by id. A MessageReply with no id is an unsolicited watcher
// notification and carries no correlation key; Correlator.Resolve
// reports no match for it and nothing further happens here, since
// watchers observe the originating Message, not its reply.
func (e *Engine) routeMessageReply(reply *yatecmd.MessageReply) {
	cb, ok := e.corr.Resolve(reply)
	if !ok {
		yatelog.Infof("yateengine: message reply with no outstanding request")
		return
	}
	if cb != nil {
		e.invoke(func() { cb(reply) })
	}
}

// routeSimpleReply handles InstallReply/UnInstallReply/SetLocalReply/
// WatchReply/UnWatchReply: log success/failure, then resolve the
// correlator entry if one is outstanding.
func (e *Engine) routeSimpleReply(cmd yatecmd.Command) {
	success, name, hasName := replyOutcome(cmd)
	if hasName {
		if success {
			yatelog.Infof("yateengine: %s succeeded for %q", cmd.Keyword(), name)
		} else {
			yatelog.Warnf("yateengine: %s failed for %q", cmd.Keyword(), name)
		}
		if e.AuditHook != nil {
			if kind, ok := auditKind(cmd); ok {
				e.AuditHook(kind, name, success)
			}
		}
	}

	cb, ok := e.corr.Resolve(cmd)
	if !ok {
		return
	}
	if cb != nil {
		e.invoke(func() { cb(cmd) })
	}
}

// auditKind maps a simple reply kind to the handler-lifecycle audit
// event name it confirms.
func auditKind(cmd yatecmd.Command) (string, bool) {
	switch cmd.(type) {
	case *yatecmd.InstallReply:
		return "install", true
	case *yatecmd.UnInstallReply:
		return "uninstall", true
	case *yatecmd.WatchReply:
		return "watch", true
	case *yatecmd.UnWatchReply:
		return "unwatch", true
	default:
		return "", false
	}
}

func replyOutcome(cmd yatecmd.Command) (success bool, name string, ok bool) {
	switch c := cmd.(type) {
	case *yatecmd.InstallReply:
		return c.Success, c.Name, true
	case *yatecmd.UnInstallReply:
		return c.Success, c.Name, true
	case *yatecmd.SetLocalReply:
		return c.Success, c.Name, true
	case *yatecmd.WatchReply:
		return c.Success, c.Name, true
	case *yatecmd.UnWatchReply:
		return c.Success, c.Name, true
	default:
		return false, "", false
	}
}

// routeError handles an "Error in" line: the engine is telling us a
// previously sent command was malformed. Its correlator entry, if any,
// is canceled with a nil reply so the caller's callback observes the
// failure instead of hanging forever.
func (e *Engine) routeError(c *yatecmd.Error) {
	yatelog.Errorf("yateengine: engine reported error in %q", c.Original)

	cb, ok := e.corr.Cancel(c.Original)
	if ok && cb != nil {
		e.invoke(func() { cb(nil) })
	}
}
