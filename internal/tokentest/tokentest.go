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

// Package tokentest builds signed tokens for tests.
package tokentest

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/blockstack/blockchain-id-auth/pkg/did"
	"github.com/blockstack/blockchain-id-auth/pkg/keys"
	"github.com/blockstack/blockchain-id-auth/pkg/token"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is a key pair together with its derived address and DID.
type Identity struct {
	Private *secp256k1.PrivateKey
	// PublicKeyHex is the compressed public key as carried in public_keys.
	PublicKeyHex string
	Address      string
	DID          string
}

// NewIdentity generates a fresh identity.
func NewIdentity(t testing.TB) *Identity {
	t.Helper()
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	pub := keys.NewPublicKey(priv.PubKey())
	return &Identity{
		Private:      priv,
		PublicKeyHex: hex.EncodeToString(priv.PubKey().SerializeCompressed()),
		Address:      pub.Address(),
		DID:          did.FromAddress(pub.Address()),
	}
}

// Sign returns an ES256K token over claims.
func (id *Identity) Sign(t testing.TB, claims map[string]any) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(token.SigningMethodES256K, jwt.MapClaims(claims)).SignedString(id.Private)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return raw
}

// Unsigned returns an alg "none" token over claims with an empty signature.
func Unsigned(t testing.TB, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"typ": "JWT", "alg": "none"})
	if err != nil {
		t.Fatal(err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatal(err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "."
}

// Decode decodes raw or fails the test.
func Decode(t testing.TB, raw string) *token.Token {
	t.Helper()
	tok, err := token.Decode(raw)
	if err != nil {
		t.Fatalf("decoding token: %v", err)
	}
	return tok
}
