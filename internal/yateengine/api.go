// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yateengine

import (
	"time"

	"github.com/yate-project/goyate/internal/yatecmd"
	"github.com/yate-project/goyate/internal/yatecorr"
	"github.com/yate-project/goyate/internal/yatehandler"
	"github.com/yate-project/goyate/pkg/yatelog"
)

// Connect attaches this module to a socket interface of the given role.
// Call it before other startup configuration (SetLocal for "trackparam"
// or "restart") so the wire sees connect first, matching the documented
// connection ordering contract.
func (e *Engine) Connect(role string, id, typ *string) error {
	cmd, err := yatecmd.NewConnect(role, id, typ)
	if err != nil {
		return err
	}
	yatelog.Infof("yateengine: connecting as %q", role)
	e.enqueue(cmd)
	return nil
}

// Install registers fn as the handler for inbound messages named name and
// sends the matching %%>install command. priority, filterName, and
// filterValue are optional engine-side filters; a nil priority lets the
// engine default it (100).
func (e *Engine) Install(name string, fn yatehandler.HandlerFunc, priority *int, filterName, filterValue *string) error {
	if err := e.handlers.InstallHandler(name, fn); err != nil {
		return err
	}
	cmd, err := yatecmd.NewInstall(name, priority, filterName, filterValue)
	if err != nil {
		_ = e.handlers.UninstallHandler(name)
		return err
	}
	yatelog.Infof("yateengine: installing handler for %q", name)
	if err := e.corr.Submit(cmd, nil); err != nil {
		_ = e.handlers.UninstallHandler(name)
		return err
	}
	if !e.enqueue(cmd) {
		_ = e.handlers.UninstallHandler(name)
		_, _ = e.corr.Resolve(&yatecmd.InstallReply{Name: name})
		return errEngineStopping
	}
	return nil
}

// UnInstall removes the handler registered for name and sends the
// matching %%>uninstall command.
func (e *Engine) UnInstall(name string) error {
	if err := e.handlers.UninstallHandler(name); err != nil {
		return err
	}
	cmd, err := yatecmd.NewUnInstall(name)
	if err != nil {
		return err
	}
	yatelog.Infof("yateengine: removing handler for %q", name)
	e.enqueue(cmd)
	return nil
}

// Watch registers fn as a watcher for messages named name and sends the
// matching %%>watch command.
func (e *Engine) Watch(name string, fn yatehandler.WatcherFunc) error {
	if err := e.handlers.InstallWatcher(name, fn); err != nil {
		return err
	}
	cmd, err := yatecmd.NewWatch(name)
	if err != nil {
		_ = e.handlers.UninstallWatcher(name)
		return err
	}
	yatelog.Infof("yateengine: installing watcher for %q", name)
	e.enqueue(cmd)
	return nil
}

// UnWatch removes the watcher registered for name and sends the matching
// %%>unwatch command.
func (e *Engine) UnWatch(name string) error {
	if err := e.handlers.UninstallWatcher(name); err != nil {
		return err
	}
	cmd, err := yatecmd.NewUnWatch(name)
	if err != nil {
		return err
	}
	yatelog.Infof("yateengine: removing watcher for %q", name)
	e.enqueue(cmd)
	return nil
}

// SetLocal sets or queries a local module parameter.
func (e *Engine) SetLocal(name string, value *string) error {
	cmd, err := yatecmd.NewSetLocal(name, value)
	if err != nil {
		return err
	}
	if value != nil {
		yatelog.Infof("yateengine: setting parameter %q to %q", name, *value)
	} else {
		yatelog.Infof("yateengine: querying parameter %q", name)
	}
	e.enqueue(cmd)
	return nil
}

// Output sends an arbitrary unescaped line to the engine's logging output.
func (e *Engine) Output(text string) {
	yatelog.Debugf("yateengine: sending output: %s", text)
	e.enqueue(&yatecmd.Output{Text: text})
}

// SendMessage injects a message into the engine. cb, if non-nil, is
// invoked once with the MessageReply (processed=true/false) or with nil
// if the engine reports the message as malformed via "Error in". cb runs
// inline under Sequential policy and in its own goroutine under Parallel
// policy, the same as an inbound handler invocation.
func (e *Engine) SendMessage(id string, t time.Time, name string, retValue *string, kvp yatecmd.KVP, cb yatecorr.Callback) error {
	msg, err := yatecmd.NewMessage(id, t, name, retValue, kvp)
	if err != nil {
		return err
	}
	if err := e.corr.Submit(msg, cb); err != nil {
		return err
	}
	yatelog.Debugf("yateengine: sending message %q (id=%s)", name, msg.ID)
	if !e.enqueue(msg) {
		_, _ = e.corr.ResolveByID(msg.ID)
		return errEngineStopping
	}
	return nil
}
