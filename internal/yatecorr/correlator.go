// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yatecorr matches outstanding outbound commands to their replies.
package yatecorr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yate-project/goyate/internal/yatecmd"
	"github.com/yate-project/goyate/internal/yateframe"
)

// Callback is invoked once with the matching reply command, or with nil if
// the original command was canceled by an "Error in" line.
type Callback func(reply yatecmd.Command)

// ErrDuplicateKey is returned by Submit when a correlation key is already
// outstanding.
var ErrDuplicateKey = errors.New("yatecorr: duplicate correlation key")

// ErrNotCorrelatable is returned when cmd's kind carries no correlation
// key.
var ErrNotCorrelatable = errors.New("yatecorr: command kind is not correlatable")

type entry struct {
	original yatecmd.Command
	cb       Callback
}

// Correlator is an in-memory, concurrency-safe map from correlation key to
// the outbound command and callback awaiting its reply.
type Correlator struct {
	mu      sync.Mutex
	entries map[string]entry
}

// New returns an empty Correlator.
func New() *Correlator {
	return &Correlator{entries: make(map[string]entry)}
}

// Key returns the correlation key for an outbound command, and whether cmd
// is a correlatable kind.
func Key(cmd yatecmd.Command) (string, bool) {
	switch c := cmd.(type) {
	case *yatecmd.Message:
		return "msg:" + c.ID, true
	case *yatecmd.Install:
		return "install:" + c.Name, true
	case *yatecmd.UnInstall:
		return "uninstall:" + c.Name, true
	case *yatecmd.SetLocal:
		return "setlocal:" + c.Name, true
	case *yatecmd.Watch:
		return "watch:" + c.Name, true
	case *yatecmd.UnWatch:
		return "unwatch:" + c.Name, true
	default:
		return "", false
	}
}

// replyKey returns the correlation key a reply command resolves, and
// whether reply is a correlatable reply kind. A MessageReply with no ID
// (a watcher notification) has no correlation key.
func replyKey(reply yatecmd.Command) (string, bool) {
	switch c := reply.(type) {
	case *yatecmd.MessageReply:
		if c.ID == nil {
			return "", false
		}
		return "msg:" + *c.ID, true
	case *yatecmd.InstallReply:
		return "install:" + c.Name, true
	case *yatecmd.UnInstallReply:
		return "uninstall:" + c.Name, true
	case *yatecmd.SetLocalReply:
		return "setlocal:" + c.Name, true
	case *yatecmd.WatchReply:
		return "watch:" + c.Name, true
	case *yatecmd.UnWatchReply:
		return "unwatch:" + c.Name, true
	default:
		return "", false
	}
}

// Submit records cmd as outstanding, awaiting a reply. It fails if cmd's
// key is already present.
func (c *Correlator) Submit(cmd yatecmd.Command, cb Callback) error {
	key, ok := Key(cmd)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotCorrelatable, cmd)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	c.entries[key] = entry{original: cmd, cb: cb}
	return nil
}

// Resolve removes and returns the callback for the entry matching reply,
// if any.
func (c *Correlator) Resolve(reply yatecmd.Command) (Callback, bool) {
	key, ok := replyKey(reply)
	if !ok {
		return nil, false
	}
	return c.remove(key)
}

// ResolveByID removes and returns the callback outstanding for an
// "msg:"+id correlation key. It lets the Engine treat an inbound Message
// that matches no installed handler but does match an outstanding
// message id as a delayed reply, an uncommon but legal engine behavior.
func (c *Correlator) ResolveByID(id string) (Callback, bool) {
	return c.remove("msg:" + id)
}

// Cancel parses originalLine (the body of an "Error in" command) and
// removes the matching entry, if any.
func (c *Correlator) Cancel(originalLine string) (Callback, bool) {
	cmd, err := yateframe.Parse(originalLine)
	if err != nil {
		return nil, false
	}

	key, ok := Key(cmd)
	if !ok {
		return nil, false
	}

	return c.remove(key)
}

func (c *Correlator) remove(key string) (Callback, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	delete(c.entries, key)
	return e.cb, true
}

// Len reports the number of outstanding entries.
func (c *Correlator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
