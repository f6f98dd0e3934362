// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatecmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageReplyDefaults(t *testing.T) {
	msg, err := NewMessage("abc", time.Unix(1000, 0).UTC(), "test", nil, KVP{{Key: "k", Value: "v"}})
	require.NoError(t, err)

	reply := msg.Reply(false, nil, nil, nil)
	assert.Equal(t, "abc", *reply.ID)
	assert.False(t, reply.Processed)
}

func TestInstallRenderWithBlankTrailingFields(t *testing.T) {
	cmd, err := NewInstall("test", intPtr(50), nil, nil)
	require.NoError(t, err)

	got := cmd.RenderFields()
	assert.Equal(t, []string{"50", "test", "", ""}, got)
}

func TestParseByKeywordUnknown(t *testing.T) {
	_, err := ParseByKeyword("%%>bogus", nil)
	assert.ErrorIs(t, err, ErrUnknownKeyword)
}

func TestFieldCount(t *testing.T) {
	n, ok := FieldCount("%%>message")
	require.True(t, ok)
	assert.Equal(t, 5, n)
}

func TestEqual(t *testing.T) {
	a, _ := NewWatch("engine.timer")
	b, _ := NewWatch("engine.timer")
	c, _ := NewWatch("engine.start")

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}

func intPtr(n int) *int { return &n }
