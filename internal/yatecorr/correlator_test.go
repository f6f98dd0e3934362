// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatecorr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yate-project/goyate/internal/yatecmd"
)

func TestSubmitResolve(t *testing.T) {
	c := New()

	msg, err := yatecmd.NewMessage("somerandomid", time.Unix(1, 0), "myapp.test", nil, nil)
	require.NoError(t, err)

	var got yatecmd.Command
	require.NoError(t, c.Submit(msg, func(reply yatecmd.Command) { got = reply }))

	id := "somerandomid"
	reply := &yatecmd.MessageReply{ID: &id, Processed: true, Name: nil}

	cb, ok := c.Resolve(reply)
	require.True(t, ok)
	cb(reply)

	assert.Same(t, reply, got)
	assert.Equal(t, 0, c.Len())
}

func TestSubmitDuplicateRejected(t *testing.T) {
	c := New()

	msg, _ := yatecmd.NewMessage("dup", time.Unix(1, 0), "app", nil, nil)
	require.NoError(t, c.Submit(msg, nil))

	msg2, _ := yatecmd.NewMessage("dup", time.Unix(1, 0), "app", nil, nil)
	err := c.Submit(msg2, nil)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestCancelOnError(t *testing.T) {
	c := New()

	install, _ := yatecmd.NewInstall("badname", nil, nil, nil)
	require.NoError(t, c.Submit(install, nil))

	cb, ok := c.Cancel("%%>install::badname")
	require.True(t, ok)
	assert.Nil(t, cb)
	assert.Equal(t, 0, c.Len())

	// A later matching reply no longer resolves anything.
	_, ok = c.Resolve(&yatecmd.InstallReply{Priority: 100, Name: "badname", Success: true})
	assert.False(t, ok)
}

func TestResolveMiss(t *testing.T) {
	c := New()
	_, ok := c.Resolve(&yatecmd.WatchReply{Name: "unknown", Success: true})
	assert.False(t, ok)
}
