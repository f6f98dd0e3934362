// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatecmd

import (
	"strings"

	"github.com/yate-project/goyate/internal/yatecodec"
)

// KVPair is a single key=value entry of a KeyValueList. An empty Value
// renders as just the key, with no '=' sign.
type KVPair struct {
	Key   string
	Value string
}

// KVP is an ordered list of key-value pairs, as carried by Message and
// MessageReply commands.
type KVP []KVPair

// Get returns the value for the first pair matching key, and whether it was
// found.
func (kvp KVP) Get(key string) (string, bool) {
	for _, p := range kvp {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func (kvp KVP) render() string {
	parts := make([]string, len(kvp))
	for i, p := range kvp {
		k := yatecodec.EncodeKVPSegment(p.Key)
		if p.Value == "" {
			parts[i] = k
			continue
		}
		parts[i] = k + "=" + yatecodec.EncodeKVPSegment(p.Value)
	}
	return strings.Join(parts, ":")
}

func parseKVP(s string) (KVP, error) {
	if s == "" {
		return nil, nil
	}

	segments := strings.Split(s, ":")
	kvp := make(KVP, 0, len(segments))

	for _, seg := range segments {
		k, v, _ := strings.Cut(seg, "=")

		key, err := yatecodec.Decode(k)
		if err != nil {
			return nil, err
		}
		if key == "" {
			return nil, errEmptyKVPKey
		}

		value, err := yatecodec.Decode(v)
		if err != nil {
			return nil, err
		}

		kvp = append(kvp, KVPair{Key: key, Value: value})
	}

	return kvp, nil
}
