// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yatehandler keeps the two name-keyed registries the Engine
// consults when routing an inbound Message: installed handlers and
// installed watchers.
package yatehandler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yate-project/goyate/internal/yatecmd"
)

// HandlerFunc processes an inbound Message matched by name. A nil return
// value means "reply with the default negative reply".
type HandlerFunc func(msg *yatecmd.Message) *yatecmd.MessageReply

// WatcherFunc observes an inbound Message or notification matched by name.
// Its return value, if any, is ignored by the Engine.
type WatcherFunc func(msg *yatecmd.Message)

// ErrAlreadyRegistered is returned by Install/Watch when name is already
// registered.
var ErrAlreadyRegistered = errors.New("yatehandler: already registered")

// ErrNotRegistered is returned by Uninstall/Unwatch when name has no
// registration.
var ErrNotRegistered = errors.New("yatehandler: not registered")

// Registry holds the handler and watcher maps. The zero value is not
// usable; use New.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	watchers map[string]WatcherFunc
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
		watchers: make(map[string]WatcherFunc),
	}
}

// InstallHandler registers fn for messages named name. It fails if name is
// already registered.
func (r *Registry) InstallHandler(name string, fn HandlerFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: handler %q", ErrAlreadyRegistered, name)
	}
	r.handlers[name] = fn
	return nil
}

// UninstallHandler removes the handler registered for name.
func (r *Registry) UninstallHandler(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; !exists {
		return fmt.Errorf("%w: handler %q", ErrNotRegistered, name)
	}
	delete(r.handlers, name)
	return nil
}

// Handler returns the handler registered for name, if any.
func (r *Registry) Handler(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[name]
	return fn, ok
}

// InstallWatcher registers fn as a watcher for messages named name. It
// fails if name is already registered.
func (r *Registry) InstallWatcher(name string, fn WatcherFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.watchers[name]; exists {
		return fmt.Errorf("%w: watcher %q", ErrAlreadyRegistered, name)
	}
	r.watchers[name] = fn
	return nil
}

// UninstallWatcher removes the watcher registered for name.
func (r *Registry) UninstallWatcher(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.watchers[name]; !exists {
		return fmt.Errorf("%w: watcher %q", ErrNotRegistered, name)
	}
	delete(r.watchers, name)
	return nil
}

// Watcher returns the watcher registered for name, if any.
func (r *Registry) Watcher(name string) (WatcherFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.watchers[name]
	return fn, ok
}

// HandlerCount returns the number of installed handlers.
func (r *Registry) HandlerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// WatcherCount returns the number of installed watchers.
func (r *Registry) WatcherCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.watchers)
}
