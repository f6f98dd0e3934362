// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yateadmin

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yate-project/goyate/pkg/yatelog"
)

// jwtMiddleware rejects any request without a valid "Authorization:
// Bearer <token>" header signed with signingKey via HS256. Trimmed from
// the teacher's auth package down to a single static key: no LDAP, no
// OIDC, no login flow, since the admin surface is a local operational
// control plane, not a user-facing application.
func jwtMiddleware(signingKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rawtoken := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if rawtoken == "" {
				http.Error(rw, "missing bearer token", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(rawtoken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
				}
				return signingKey, nil
			})
			if err != nil || !token.Valid {
				yatelog.Warnf("yateadmin: rejected request to %s: %v", r.URL.Path, err)
				http.Error(rw, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(rw, r)
		})
	}
}

// IssueToken mints an HS256 token signed with signingKey for the given
// subject, valid for ttlSeconds. Exists so cmd/ drivers and tests can
// produce tokens without a login flow.
func IssueToken(signingKey []byte, subject string, ttlSeconds int64) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
	}
	if ttlSeconds > 0 {
		claims["exp"] = time.Now().Unix() + ttlSeconds
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}
