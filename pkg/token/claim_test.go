//
// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package token

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPayload(t *testing.T) {
	claims := map[string]any{
		ClaimPublicKeys: []any{"02ab"},
		ClaimIssuer:     "did:btc-addr:1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH",
		ClaimUsername:   "alice.id",
		ClaimIssuedAt:   json.Number("1500000000"),
		ClaimExpiration: "1500000100.5",
	}
	p := NewPayload(claims)

	keys, ok, err := p.PublicKeys.Get()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"02ab"}, keys)

	iss, ok, err := p.Issuer.Get()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "did:btc-addr:1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", iss)

	username, ok, _ := p.Username.Get()
	assert.True(t, ok)
	assert.Equal(t, "alice.id", username)

	iat, ok, _ := p.IssuedAt.Get()
	assert.True(t, ok)
	assert.Equal(t, Timestamp(1500000000), iat)

	exp, ok, _ := p.Expiration.Get()
	assert.True(t, ok)
	assert.Equal(t, Timestamp(1500000100.5), exp)
}

func TestClaimAbsence(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
	}{
		{
			name:   "missing",
			claims: map[string]any{},
		},
		{
			name: "null",
			claims: map[string]any{
				ClaimPublicKeys: nil,
				ClaimIssuer:     nil,
				ClaimUsername:   nil,
				ClaimIssuedAt:   nil,
				ClaimExpiration: nil,
			},
		},
		{
			name: "empty",
			claims: map[string]any{
				ClaimPublicKeys: []any{},
				ClaimIssuer:     "",
				ClaimUsername:   "",
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := NewPayload(test.claims)
			assert.False(t, p.PublicKeys.Exists())
			assert.False(t, p.Issuer.Exists())
			assert.False(t, p.Username.Exists())
			assert.False(t, p.IssuedAt.Exists())
			assert.False(t, p.Expiration.Exists())

			_, ok, err := p.Issuer.Get()
			assert.False(t, ok)
			assert.NoError(t, err)
		})
	}
}

func TestMalformedClaims(t *testing.T) {
	p := NewPayload(map[string]any{
		ClaimPublicKeys: "02ab",
		ClaimIssuer:     42.0,
		ClaimUsername:   []any{"alice"},
		ClaimIssuedAt:   "yesterday",
		ClaimExpiration: true,
	})

	for name, c := range map[string]interface {
		Exists() bool
	}{
		ClaimPublicKeys: p.PublicKeys,
		ClaimIssuer:     p.Issuer,
		ClaimUsername:   p.Username,
		ClaimIssuedAt:   p.IssuedAt,
		ClaimExpiration: p.Expiration,
	} {
		assert.True(t, c.Exists(), name)
	}

	_, ok, err := p.PublicKeys.Get()
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrMalformedClaim))

	_, _, err = p.Issuer.Get()
	assert.ErrorIs(t, err, ErrMalformedClaim)
	_, _, err = p.Username.Get()
	assert.ErrorIs(t, err, ErrMalformedClaim)
	_, _, err = p.IssuedAt.Get()
	assert.ErrorIs(t, err, ErrMalformedClaim)
	_, _, err = p.Expiration.Get()
	assert.ErrorIs(t, err, ErrMalformedClaim)

	mixed := NewPayload(map[string]any{ClaimPublicKeys: []any{"02ab", 7.0}})
	_, _, err = mixed.PublicKeys.Get()
	assert.ErrorIs(t, err, ErrMalformedClaim)

	nan := NewPayload(map[string]any{ClaimIssuedAt: "NaN"})
	_, _, err = nan.IssuedAt.Get()
	assert.ErrorIs(t, err, ErrMalformedClaim)
}

func TestTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 500_000_000)
	ts := NewTimestamp(now)
	assert.Equal(t, Timestamp(1700000000.5), ts)
	assert.True(t, ts.Time().Equal(now))

	assert.False(t, ts.Before(now))
	assert.False(t, ts.After(now))
	assert.True(t, ts.Before(now.Add(time.Second)))
	assert.True(t, ts.After(now.Add(-time.Second)))
}

func TestTimestampSubMicrosecond(t *testing.T) {
	for _, test := range []struct {
		name       string
		ts         Timestamp
		now        time.Time
		wantBefore bool
		wantAfter  bool
	}{
		{
			name:       "whole second, now 100ns later",
			ts:         Timestamp(1700000000),
			now:        time.Unix(1700000000, 100),
			wantBefore: true,
		},
		{
			name:      "whole second, now 100ns earlier",
			ts:        Timestamp(1700000000),
			now:       time.Unix(1699999999, 999_999_900),
			wantAfter: true,
		},
		{
			name: "equal",
			ts:   Timestamp(1700000000),
			now:  time.Unix(1700000000, 0),
		},
		{
			name:       "fraction, now 1ns later",
			ts:         Timestamp(1700000000.5),
			now:        time.Unix(1700000000, 500_000_001),
			wantBefore: true,
		},
		{
			name:      "negative timestamp",
			ts:        Timestamp(-1.5),
			now:       time.Unix(-2, 0),
			wantAfter: true,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.wantBefore, test.ts.Before(test.now))
			assert.Equal(t, test.wantAfter, test.ts.After(test.now))
		})
	}
}
