// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yateaudit

import (
	"context"
	"time"

	"github.com/yate-project/goyate/pkg/yatelog"
)

type queryHooksKey struct{}

// queryHooks satisfies sqlhooks.Hooks, timing every query the audit trail
// issues against its own SQLite database.
type queryHooks struct{}

func (h *queryHooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	yatelog.Debugf("yateaudit: query %s %q", query, args)
	return context.WithValue(ctx, queryHooksKey{}, time.Now()), nil
}

func (h *queryHooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	begin, _ := ctx.Value(queryHooksKey{}).(time.Time)
	if !begin.IsZero() {
		yatelog.Debugf("yateaudit: took %s", time.Since(begin))
	}
	return ctx, nil
}
