// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatecodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, "%z", Encode(":"))
	assert.Equal(t, "%%", Encode("%"))
	assert.Equal(t, "%@", Encode("\x00"))
	assert.Equal(t, "%_", Encode("\x1f"))
	assert.Equal(t, "abc", Encode("abc"))
}

func TestDecode(t *testing.T) {
	s, err := Decode("%%")
	require.NoError(t, err)
	assert.Equal(t, "%", s)

	s, err = Decode("%z")
	require.NoError(t, err)
	assert.Equal(t, ":", s)

	s, err = Decode("%@")
	require.NoError(t, err)
	assert.Equal(t, "\x00", s)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode("abc%")
	assert.ErrorIs(t, err, ErrTruncatedEscape)
}

func TestRoundTrip(t *testing.T) {
	for i := 0; i < 256; i++ {
		s := string([]byte{byte(i)})
		decoded, err := Decode(Encode(s))
		require.NoError(t, err)
		assert.Equal(t, s, decoded)
	}

	samples := []string{
		"", "hello world", "a:b:c", "100%", "done=75%", "/bin:/usr/bin",
		"line1\nline2", "\x01\x02\x03",
	}
	for _, s := range samples {
		decoded, err := Decode(Encode(s))
		require.NoError(t, err)
		assert.Equal(t, s, decoded)
	}
}

func TestEncodeKVPSegment(t *testing.T) {
	assert.Equal(t, "%zd", EncodeKVPSegment(":d"))
	assert.Equal(t, "a%}b", EncodeKVPSegment("a=b"))
}
