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

// Package token decodes identity tokens into typed payloads and verifies
// their ES256K signatures.
package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names recognized in a token payload.
const (
	ClaimPublicKeys = "public_keys"
	ClaimIssuer     = "iss"
	ClaimUsername   = "username"
	ClaimIssuedAt   = "iat"
	ClaimExpiration = "exp"
)

// ErrMalformedToken is returned when a token cannot be decoded.
var ErrMalformedToken = errors.New("malformed token")

// Payload holds the claims used for verification. Every field is optional.
type Payload struct {
	PublicKeys Claim[[]string]
	Issuer     Claim[string]
	Username   Claim[string]
	IssuedAt   Claim[Timestamp]
	Expiration Claim[Timestamp]
}

// NewPayload extracts the recognized claims from a decoded claim set.
func NewPayload(claims map[string]any) Payload {
	return Payload{
		PublicKeys: stringListClaim(claims, ClaimPublicKeys),
		Issuer:     stringClaim(claims, ClaimIssuer),
		Username:   stringClaim(claims, ClaimUsername),
		IssuedAt:   timestampClaim(claims, ClaimIssuedAt),
		Expiration: timestampClaim(claims, ClaimExpiration),
	}
}

// Token is a decoded, not yet verified, token.
type Token struct {
	// Raw is the compact serialization the signature is checked against.
	Raw     string
	Header  map[string]any
	Payload Payload
}

// Alg returns the signing algorithm named in the header.
func (t *Token) Alg() string {
	alg, _ := t.Header["alg"].(string)
	return alg
}

// Decode parses a compact token without verifying it.
func Decode(raw string) (*Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}
	parser := jwt.NewParser(jwt.WithJSONNumber())
	claims := jwt.MapClaims{}
	parsed, _, err := parser.ParseUnverified(raw, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims", ErrMalformedToken)
	}
	return &Token{
		Raw:     raw,
		Header:  parsed.Header,
		Payload: NewPayload(claims),
	}, nil
}
