// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatetransport

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATS is an additive Transport alongside stdio/socket: inbound wire
// lines arrive as messages on inboxSubject, outbound lines are published
// to replySubject. It exists for deployments that front the engine with a
// NATS bridge instead of a direct pipe or socket; it carries no special
// wire semantics of its own.
type NATS struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	replyTo string

	lines chan string

	closeOnce sync.Once
	closed    chan struct{}
}

// DialNATS connects to url and subscribes to inboxSubject, publishing
// written lines to replySubject.
func DialNATS(url, inboxSubject, replySubject string) (*NATS, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("yatetransport: nats connect: %w", err)
	}

	t := &NATS{
		nc:      nc,
		replyTo: replySubject,
		lines:   make(chan string, 64),
		closed:  make(chan struct{}),
	}

	sub, err := nc.Subscribe(inboxSubject, func(msg *nats.Msg) {
		for _, line := range strings.Split(strings.TrimRight(string(msg.Data), "\n"), "\n") {
			select {
			case t.lines <- line:
			case <-t.closed:
				return
			}
		}
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("yatetransport: nats subscribe %q: %w", inboxSubject, err)
	}

	t.sub = sub
	return t, nil
}

func (t *NATS) ReadLine() (string, error) {
	select {
	case line := <-t.lines:
		return line, nil
	case <-t.closed:
		return "", io.EOF
	}
}

func (t *NATS) Write(line string) error {
	select {
	case <-t.closed:
		return io.ErrClosedPipe
	default:
	}
	return t.nc.Publish(t.replyTo, []byte(line))
}

func (t *NATS) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		if t.sub != nil {
			_ = t.sub.Unsubscribe()
		}
		t.nc.Close()
	})
	return nil
}
